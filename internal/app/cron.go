package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgcron "github.com/starboard-analytics/news-core/internal/pkg/cron"
	"github.com/starboard-analytics/news-core/internal/pkg/response"
)

// registerCronJobs registers the scheduled background jobs. They run only
// when the in-process scheduler is enabled; deployments driven by an
// external scheduler hit /api/cron/* instead, and the manual-run admin
// endpoint works either way.
func (a *App) registerCronJobs() {
	cronLogger := a.logger.Named("CronService")

	a.sched.Register(pkgcron.Job{
		Name:        "generate_reports",
		Description: "Generate today's reports for every newsletter",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			today := time.Now().UTC().Format("2006-01-02")
			results := a.generateSvc.GenerateDaily(ctx, today)
			cronLogger.Info("report generation pass finished",
				zap.String("date", today),
				zap.Any("results", results))
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "send_newsletters",
		Description: "Deliver today's reports to all active subscribers",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			today := time.Now().UTC().Format("2006-01-02")
			results := a.deliverySvc.SendDaily(ctx, today)
			cronLogger.Info("delivery pass finished",
				zap.String("date", today),
				zap.Any("results", results))
			return nil
		},
	})
}

// registerCronAdminRoutes exposes job inspection and manual triggering.
func (a *App) registerCronAdminRoutes(rg *gin.RouterGroup, cronAuth gin.HandlerFunc) {
	rg.GET("/admin/cron", cronAuth, func(c *gin.Context) {
		response.OK(c, gin.H{"jobs": a.sched.List()})
	})

	rg.POST("/admin/cron/:name/run", cronAuth, func(c *gin.Context) {
		name := c.Param("name")
		if err := a.sched.RunSync(c.Request.Context(), name); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		response.OK(c, gin.H{"success": true, "name": name})
	})
}
