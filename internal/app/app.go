// Package app wires configuration, storage, transports, and routes into a
// runnable HTTP application.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/config"
	"github.com/starboard-analytics/news-core/internal/database"
	"github.com/starboard-analytics/news-core/internal/middleware"
	"github.com/starboard-analytics/news-core/internal/modules/delivery"
	"github.com/starboard-analytics/news-core/internal/modules/generate"
	"github.com/starboard-analytics/news-core/internal/modules/report"
	"github.com/starboard-analytics/news-core/internal/modules/subscribe"
	pkgcron "github.com/starboard-analytics/news-core/internal/pkg/cron"
	"github.com/starboard-analytics/news-core/internal/pkg/mail"
	pkgredis "github.com/starboard-analytics/news-core/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	reportSvc   *report.Service
	generateSvc *generate.Service
	deliverySvc *delivery.Service
	subSvc      *subscribe.Service
}

// New initializes the application: config → DB → Redis → routes → scheduler.
func New(logger *zap.Logger, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.CronSecret == "" {
		logger.Warn("cron_secret is empty, privileged routes will reject every request")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	// Redis is optional. Without it the app serves uncached and unthrottled.
	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Info("redis_url not set, rate limiting and content cache disabled")
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	sender := mail.New(mail.BuildConfig(cfg))

	reportSvc := report.NewService(db)
	deliverySvc := delivery.NewService(db, reportSvc, sender, cfg.SiteURL, logger)
	generateSvc := generate.NewService(&cfg.AI, reportSvc, logger)
	subSvc := subscribe.NewService(db, deliverySvc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New()
	app := &App{
		cfg: cfg, router: router, db: db, rc: rc, logger: logger,
		cancel: cancel, sched: sched,
		reportSvc: reportSvc, generateSvc: generateSvc,
		deliverySvc: deliverySvc, subSvc: subSvc,
	}
	app.registerCronJobs()
	if cfg.Scheduler.Enable {
		go sched.Start(ctx)
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines.
func (a *App) Shutdown() { a.cancel() }
