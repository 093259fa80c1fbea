// Package metrics 维护服务私有的 Prometheus 指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plantcare"

// Metrics 持有独立的 registry，避免测试之间相互污染
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	statusUpdates *prometheus.CounterVec
	dashboards    *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Plant status updates applied, by backend and field.",
		}, []string{"backend", "field"}),
		dashboards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard summaries computed, by backend.",
		}, []string{"backend"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.statusUpdates,
		m.dashboards,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry 暴露底层 registry，便于测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 的处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware 记录请求数与耗时；path 使用路由模板，未匹配的路由记为 "unmatched"
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveStatusUpdate 记录一次成功的状态写入
func (m *Metrics) ObserveStatusUpdate(backend, field string) {
	m.statusUpdates.WithLabelValues(backend, field).Inc()
}

// ObserveDashboard 记录一次仪表盘统计
func (m *Metrics) ObserveDashboard(backend string) {
	m.dashboards.WithLabelValues(backend).Inc()
}
