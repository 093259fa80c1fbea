package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/handler"
	"github.com/plantcare/internal/metrics"
	"github.com/sirupsen/logrus"
)

const sessionName = "plantcare_session"

// Options 汇总路由所需的依赖
type Options struct {
	Logger        logrus.FieldLogger
	Metrics       *metrics.Metrics
	SessionSecret string
	CORSOrigins   []string
	RateLimiter   *handler.RateLimiter

	// Postgres 为关系型后端的 handler，必须提供
	Postgres *handler.API
	// Supabase 为远程 REST 后端；为 nil 时 /sb 路由返回 503
	Supabase *handler.API

	EnableTestRoutes bool
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = handler.NewRateLimiter(0, 0)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(opts.Metrics.Middleware())
	r.Use(handler.RequestLogger(opts.Logger))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	registerBackend(r.Group("/"+handler.BackendPostgres), opts.Postgres, opts.RateLimiter)

	if opts.Supabase != nil {
		registerBackend(r.Group("/"+handler.BackendSupabase), opts.Supabase, opts.RateLimiter)

		if opts.EnableTestRoutes {
			test := r.Group("/test/" + handler.BackendSupabase)
			test.Use(opts.RateLimiter.Handler())
			{
				test.POST("/plants", opts.Supabase.CreatePlantUnauthenticated)
				test.GET("/plants", opts.Supabase.ListPlantsUnauthenticated)
			}
		}
	} else {
		r.Any("/"+handler.BackendSupabase+"/*path", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "supabase backend is not configured",
				"data":    nil,
			})
		})
	}

	return r
}

// registerBackend 为单个存储后端注册完全相同的路由表
func registerBackend(group *gin.RouterGroup, api *handler.API, limiter *handler.RateLimiter) {
	authRoutes := group.Group("/auth")
	{
		authRoutes.POST("/register", limiter.Handler(), api.Register)
		authRoutes.POST("/login", limiter.Handler(), api.Login)
		authRoutes.POST("/logout", api.Logout)
		authRoutes.GET("/me", api.AuthRequired(), limiter.Handler(), api.Me)
	}

	// 需要认证的路由
	protected := group.Group("")
	protected.Use(api.AuthRequired(), limiter.Handler())
	{
		protected.POST("/plants", api.CreatePlant)
		protected.GET("/plants", api.ListPlants)
		protected.GET("/plants/:id", api.GetPlant)
		protected.PUT("/plants/:id", api.UpdatePlant)
		protected.PATCH("/plants/:id/status", api.UpdatePlantStatus)
		protected.DELETE("/plants/:id", api.DeletePlant)
		protected.GET("/dashboard", api.Dashboard)
	}
}
