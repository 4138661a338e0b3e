// Package generate produces newsletter report content through the configured
// LLM provider, one prompt template per report type.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcfg "github.com/starboard-analytics/news-core/internal/config"
	"github.com/starboard-analytics/news-core/internal/models"
	"github.com/starboard-analytics/news-core/internal/modules/report"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

// Service generates report content and stores it through the report store.
type Service struct {
	ai      *appcfg.AIConfig
	reports *report.Service
	logger  *zap.Logger
}

func NewService(ai *appcfg.AIConfig, reports *report.Service, logger *zap.Logger) *Service {
	return &Service{ai: ai, reports: reports, logger: logger.Named("GenerateService")}
}

// Generate renders the prompt for the report type and invokes the provider.
// It fails when the type has no template or the response holds no text.
func (s *Service) Generate(ctx context.Context, reportType, date, sources string) (string, error) {
	prompt, err := buildPrompt(reportType, date, sources)
	if err != nil {
		return "", err
	}
	content, err := callAI(ctx, s.ai, prompt)
	if err != nil {
		return "", err
	}
	return content, nil
}

// GenerateAndStore generates content and upserts the report row with the
// "claude" source tag. Existing content for (type, date) is overwritten.
func (s *Service) GenerateAndStore(ctx context.Context, reportType, date, sources string) (*models.ReportModel, error) {
	content, err := s.Generate(ctx, reportType, date, sources)
	if err != nil {
		return nil, err
	}
	return s.reports.Upsert(ctx, reportType, date, content, models.ReportSourceClaude)
}

// GenerateDaily runs the scheduled generation pass: every supported report
// type gets today's report unless one already exists. Individual failures
// are recorded per type and never abort the loop.
func (s *Service) GenerateDaily(ctx context.Context, date string) map[string]string {
	results := make(map[string]string, len(SupportedReportTypes()))
	for _, reportType := range SupportedReportTypes() {
		exists, err := s.reports.Exists(ctx, reportType, date)
		if err != nil {
			s.logger.Error("report existence check failed",
				zap.String("type", reportType), zap.Error(err))
			results[reportType] = fmt.Sprintf("error: %v", err)
			continue
		}
		if exists {
			results[reportType] = "already_exists"
			continue
		}

		if _, err := s.GenerateAndStore(ctx, reportType, date, DefaultSources); err != nil {
			s.logger.Error("report generation failed",
				zap.String("type", reportType), zap.Error(err))
			results[reportType] = fmt.Sprintf("error: %v", err)
			continue
		}
		results[reportType] = "generated"
	}
	return results
}

// Handler serves the privileged generation endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the generation endpoints under cron auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, cronAuth gin.HandlerFunc) {
	rg.POST("/content/generate", cronAuth, h.generate)
	rg.GET("/cron/generate", cronAuth, h.cronGenerate)
}

type generateDTO struct {
	Type    string `json:"type"`
	Date    string `json:"date"`
	Sources string `json:"sources"`
}

// POST /content/generate  [cron auth]
func (h *Handler) generate(c *gin.Context) {
	var dto generateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.Type == "" || dto.Date == "" || dto.Sources == "" {
		response.BadRequest(c, "Missing required fields: type, date, sources")
		return
	}
	if _, ok := promptTemplates[dto.Type]; !ok {
		response.BadRequest(c, fmt.Sprintf("Invalid type. Supported: %s",
			strings.Join(SupportedReportTypes(), ", ")))
		return
	}

	row, err := h.svc.GenerateAndStore(c.Request.Context(), dto.Type, dto.Date, dto.Sources)
	if err != nil {
		h.svc.logger.Error("content generation failed", zap.String("type", dto.Type), zap.Error(err))
		response.InternalErrorMsg(c, fmt.Sprintf("Content generation failed: %v", err))
		return
	}

	response.OK(c, gin.H{
		"success":        true,
		"type":           dto.Type,
		"date":           dto.Date,
		"content_length": len(row.Content),
	})
}

// GET /cron/generate  [cron auth]
func (h *Handler) cronGenerate(c *gin.Context) {
	today := time.Now().UTC().Format("2006-01-02")
	results := h.svc.GenerateDaily(c.Request.Context(), today)

	response.OK(c, gin.H{
		"success": true,
		"date":    today,
		"results": results,
	})
}
