package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plantcare/internal/metrics"
	"github.com/plantcare/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	// BackendPostgres 是关系型后端的路由前缀
	BackendPostgres = "pg"
	// BackendSupabase 是远程 REST 后端的路由前缀
	BackendSupabase = "sb"

	userIDContextKey = "__user_id"
)

// API bundles shared dependencies for HTTP handlers.
// 每个存储后端各持有一个 API，路由表完全相同。
type API struct {
	backend string
	plants  *service.PlantService
	auth    *service.AuthService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// Options 描述构造 API 所需的依赖
type Options struct {
	Backend string
	Plants  *service.PlantService
	Auth    *service.AuthService
	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger
}

// NewAPI constructs a handler set for one storage backend.
func NewAPI(opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &API{
		backend: opts.Backend,
		plants:  opts.Plants,
		auth:    opts.Auth,
		metrics: m,
		log:     log.WithField("backend", opts.Backend),
	}
}

// Backend 返回该 API 对应的后端名称
func (a *API) Backend() string {
	return a.backend
}

// sessionKey 按后端区分会话中的用户，两个后端的用户表互不相通
func (a *API) sessionKey() string {
	return a.backend + "_user_id"
}

func currentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDContextKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
