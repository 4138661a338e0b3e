package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starboard-analytics/news-core/internal/models"
	"github.com/starboard-analytics/news-core/internal/modules/newsletter"
	"github.com/starboard-analytics/news-core/internal/modules/render"
	pkgredis "github.com/starboard-analytics/news-core/internal/pkg/redis"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

const todayCacheTTL = 60 * time.Second

// Handler serves the content ingest and public content endpoints.
type Handler struct {
	svc    *Service
	cache  *pkgredis.Client
	logger *zap.Logger
}

func NewHandler(svc *Service, cache *pkgredis.Client, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, cache: cache, logger: logger.Named("ReportHandler")}
}

// RegisterRoutes mounts the public content endpoint and, under cron auth,
// the trusted ingest endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, cronAuth gin.HandlerFunc) {
	rg.GET("/content/today", h.today)
	rg.POST("/content/ingest", cronAuth, h.ingest)
}

type ingestDTO struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// POST /content/ingest  [cron auth]
// Accepts externally produced content, bypassing generation. Same
// upsert-by-(type,date) policy; the write is verified by re-reading before
// success is reported.
func (h *Handler) ingest(c *gin.Context) {
	var dto ingestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.Type == "" || dto.Content == "" || dto.Date == "" {
		response.BadRequest(c, "Missing required fields: type, content, date")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.svc.Upsert(ctx, dto.Type, dto.Date, dto.Content, models.ReportSourceExternal); err != nil {
		h.logger.Error("content ingest failed", zap.String("type", dto.Type), zap.Error(err))
		response.InternalErrorMsg(c, fmt.Sprintf("Content ingest failed: %v", err))
		return
	}

	verified, err := h.svc.ByTypeAndDate(ctx, dto.Type, dto.Date)
	if err != nil {
		h.logger.Error("content ingest verification failed", zap.String("type", dto.Type), zap.Error(err))
		response.InternalErrorMsg(c, "Content ingest failed: record not found after insert")
		return
	}

	h.invalidateTodayCache(c, dto.Type)

	response.OK(c, gin.H{
		"success":        true,
		"type":           dto.Type,
		"date":           dto.Date,
		"content_length": len(dto.Content),
		"id":             verified.ID,
	})
}

type todayPayload struct {
	Date        string    `json:"date"`
	Title       string    `json:"title"`
	Emoji       string    `json:"emoji"`
	Content     string    `json:"content"`
	HTML        string    `json:"html"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GET /content/today?feed=  (public)
func (h *Handler) today(c *gin.Context) {
	feed := c.Query("feed")
	n, ok := newsletter.Get(feed)
	if !ok {
		response.BadRequest(c, fmt.Sprintf("Missing or invalid feed. Valid feeds: %s",
			strings.Join(newsletter.ValidFeedIDs(), ", ")))
		return
	}

	ctx := c.Request.Context()
	cacheKey := "news:content_today:" + feed
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var payload todayPayload
			if json.Unmarshal([]byte(cached), &payload) == nil {
				response.OK(c, payload)
				return
			}
		}
	}

	row, err := h.svc.Latest(ctx, n.ReportType)
	if errors.Is(err, ErrNotFound) {
		response.NotFoundMsg(c, "No content available")
		return
	}
	if err != nil {
		h.logger.Error("latest report lookup failed", zap.String("feed", feed), zap.Error(err))
		response.InternalError(c)
		return
	}

	payload := todayPayload{
		Date:        row.Date,
		Title:       n.Name,
		Emoji:       n.Emoji,
		Content:     row.Content,
		HTML:        render.MarkdownToHTML(row.Content),
		GeneratedAt: row.CreatedAt,
	}

	if h.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			_ = h.cache.Set(ctx, cacheKey, string(raw), todayCacheTTL)
		}
	}

	response.OK(c, payload)
}

// invalidateTodayCache drops cached responses for every feed mapped to the
// given report type.
func (h *Handler) invalidateTodayCache(c *gin.Context, reportType string) {
	if h.cache == nil {
		return
	}
	for _, n := range newsletter.All() {
		if n.ReportType == reportType {
			_ = h.cache.Del(c.Request.Context(), "news:content_today:"+n.ID)
		}
	}
}
