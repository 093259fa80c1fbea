// Package app 按配置装配存储后端、服务与路由。
package app

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/config"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/handler"
	"github.com/plantcare/internal/metrics"
	"github.com/plantcare/internal/router"
	"github.com/plantcare/internal/service"
	"github.com/plantcare/internal/supabase"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend 是某个存储后端上的一组服务
type Backend struct {
	Name   string
	Plants *service.PlantService
	Auth   *service.AuthService
}

// App 持有进程级依赖
type App struct {
	Config  config.AppConfig
	Log     *logrus.Logger
	Metrics *metrics.Metrics
	Limiter *handler.RateLimiter

	DB       *gorm.DB
	Postgres *Backend
	// Supabase 在未配置 SUPABASE_URL/SUPABASE_KEY 时为 nil
	Supabase *Backend
}

// New 打开数据库并构造两个后端的服务
func New(cfg config.AppConfig, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	tokens, err := service.NewTokens(service.TokenOptions{
		Secret:         cfg.JWTSecret,
		TTL:            cfg.TokenTTL,
		AllowDevTokens: cfg.AllowDevTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init tokens: %w", err)
	}

	gdb, err := db.Open(databaseOptions(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
		Limiter: handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		DB:      gdb,
		Postgres: &Backend{
			Name:   handler.BackendPostgres,
			Plants: service.NewPlantService(db.NewPlantStore(gdb), log.WithField("backend", handler.BackendPostgres)),
			Auth:   service.NewAuthService(db.NewUserStore(gdb), tokens),
		},
	}

	if cfg.SupabaseEnabled() {
		client, err := supabase.New(supabase.Config{
			ProjectURL: cfg.SupabaseURL,
			APIKey:     cfg.SupabaseKey,
			Timeout:    cfg.SupabaseTimeout,
		})
		if err != nil {
			db.Close(gdb)
			return nil, fmt.Errorf("init supabase: %w", err)
		}
		a.Supabase = &Backend{
			Name:   handler.BackendSupabase,
			Plants: service.NewPlantService(supabase.NewPlantStore(client), log.WithField("backend", handler.BackendSupabase)),
			Auth:   service.NewAuthService(supabase.NewUserStore(client), tokens),
		}
	} else {
		log.Warn("SUPABASE_URL/SUPABASE_KEY not set, /sb routes are disabled")
	}

	return a, nil
}

// Backend 按名称返回后端
func (a *App) Backend(name string) (*Backend, error) {
	switch name {
	case handler.BackendPostgres:
		return a.Postgres, nil
	case handler.BackendSupabase:
		if a.Supabase == nil {
			return nil, errors.New("supabase backend is not configured")
		}
		return a.Supabase, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// Router 构造 HTTP 路由
func (a *App) Router() *gin.Engine {
	switch a.Config.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(a.Config.GinMode)
	}

	opts := router.Options{
		Logger:           a.Log,
		Metrics:          a.Metrics,
		SessionSecret:    a.Config.SessionSecret,
		CORSOrigins:      a.Config.CORSOrigins,
		RateLimiter:      a.Limiter,
		Postgres:         a.api(a.Postgres),
		EnableTestRoutes: a.Config.EnableTestRoutes,
	}
	if a.Supabase != nil {
		opts.Supabase = a.api(a.Supabase)
	}
	return router.SetupRouter(opts)
}

// Close 释放数据库连接
func (a *App) Close() error {
	return db.Close(a.DB)
}

func (a *App) api(b *Backend) *handler.API {
	return handler.NewAPI(handler.Options{
		Backend: b.Name,
		Plants:  b.Plants,
		Auth:    b.Auth,
		Metrics: a.Metrics,
		Logger:  a.Log,
	})
}

func databaseOptions(cfg config.AppConfig, log *logrus.Logger) db.Options {
	level := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	opts := db.Options{Driver: cfg.DatabaseDriver, LogLevel: level}
	if cfg.DatabaseDriver == db.DriverPostgres {
		opts.DSN = cfg.Postgres.DSN()
	} else {
		opts.Path = cfg.DatabasePath
	}
	return opts
}
