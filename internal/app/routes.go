package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/starboard-analytics/news-core/internal/middleware"
	"github.com/starboard-analytics/news-core/internal/modules/delivery"
	"github.com/starboard-analytics/news-core/internal/modules/generate"
	"github.com/starboard-analytics/news-core/internal/modules/newsletter"
	"github.com/starboard-analytics/news-core/internal/modules/report"
	"github.com/starboard-analytics/news-core/internal/modules/subscribe"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	cronAuth := middleware.CronAuth(a.cfg.CronSecret)

	api := r.Group("/api")

	// Public routes go through the per-IP limiter; privileged cron and admin
	// routes are already gated by the bearer secret.
	if a.rc != nil {
		api.Use(middleware.RateLimit(a.rc.Raw()))
	}

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	newsletter.RegisterRoutes(api)
	subscribe.NewHandler(a.subSvc, a.logger).RegisterRoutes(api, cronAuth)
	report.NewHandler(a.reportSvc, a.rc, a.logger).RegisterRoutes(api, cronAuth)
	generate.NewHandler(a.generateSvc).RegisterRoutes(api, cronAuth)
	delivery.NewHandler(a.deliverySvc).RegisterRoutes(api, cronAuth)

	a.registerCronAdminRoutes(api, cronAuth)
}
