package delivery

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

// Handler serves the scheduled delivery endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the delivery endpoint under cron auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, cronAuth gin.HandlerFunc) {
	rg.GET("/cron/send", cronAuth, h.cronSend)
}

// GET /cron/send  [cron auth]
func (h *Handler) cronSend(c *gin.Context) {
	today := time.Now().UTC().Format("2006-01-02")
	results := h.svc.SendDaily(c.Request.Context(), today)

	response.OK(c, gin.H{
		"success": true,
		"date":    today,
		"results": results,
	})
}
