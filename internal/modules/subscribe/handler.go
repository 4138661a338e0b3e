package subscribe

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

// Handler serves the public subscription endpoints and the admin export.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.Named("SubscribeHandler")}
}

// RegisterRoutes mounts the subscription endpoints. Unsubscribe answers both
// GET (footer links in emails) and POST (the site form).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, cronAuth gin.HandlerFunc) {
	rg.POST("/subscribe", h.subscribe)
	rg.GET("/unsubscribe", h.unsubscribeGET)
	rg.POST("/unsubscribe", h.unsubscribePOST)
	rg.GET("/admin/export", cronAuth, h.export)
}

type subscribeDTO struct {
	Email       string   `json:"email"`
	Feeds       []string `json:"feeds"`
	PartnerSlug string   `json:"partner_slug"`
}

// POST /subscribe
func (h *Handler) subscribe(c *gin.Context) {
	var dto subscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, ErrInvalidEmail.Error())
		return
	}

	res, err := h.svc.Subscribe(c.Request.Context(), dto.Email, dto.Feeds, dto.PartnerSlug)
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrNoFeeds), errors.Is(err, ErrInvalidFeeds):
		response.BadRequest(c, err.Error())
		return
	case err != nil:
		h.logger.Error("subscribe failed", zap.Error(err))
		response.InternalErrorMsg(c, "订阅失败，请稍后重试")
		return
	}

	body := gin.H{
		"success": true,
		"message": "订阅已更新",
		"feeds":   res.Feeds,
	}
	if res.Created {
		body["message"] = "订阅成功"
		response.Created(c, body)
		return
	}
	response.OK(c, body)
}

// GET /unsubscribe?token=
func (h *Handler) unsubscribeGET(c *gin.Context) {
	row, err := h.svc.Unsubscribe(c.Request.Context(), c.Query("token"), "")
	if errors.Is(err, ErrNotFound) {
		response.NotFoundMsg(c, "Invalid or expired unsubscribe link")
		return
	}
	if err != nil {
		h.logger.Error("unsubscribe failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"message": "Unsubscribed successfully",
		"email":   row.Email,
	})
}

type unsubscribeDTO struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// POST /unsubscribe
func (h *Handler) unsubscribePOST(c *gin.Context) {
	var dto unsubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Missing token or email")
		return
	}
	if dto.Token == "" && dto.Email == "" {
		response.BadRequest(c, "Missing token or email")
		return
	}

	_, err := h.svc.Unsubscribe(c.Request.Context(), dto.Token, dto.Email)
	if errors.Is(err, ErrNotFound) {
		response.NotFoundMsg(c, "Subscription not found")
		return
	}
	if err != nil {
		h.logger.Error("unsubscribe failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"message": "Unsubscribed successfully",
	})
}

// GET /admin/export  [cron auth]
func (h *Handler) export(c *gin.Context) {
	rows, total, err := h.svc.Export(c.Request.Context())
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{
		"exported_at":   time.Now().UTC(),
		"active_count":  len(rows),
		"total_count":   total,
		"subscriptions": rows,
	})
}
