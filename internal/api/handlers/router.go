package handlers

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/langchou/autodata/internal/metrics"
)

// RouterOptions 路由中间件配置
type RouterOptions struct {
	CORSAllowOrigins []string
	RateLimiter      *RateLimiter // 为 nil 时不限流
}

// NewRouter 创建带中间件的 gin 引擎并注册路由
func (h *Handler) NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(AccessLogMiddleware(h.logger))
	r.Use(metrics.GinMiddleware())
	r.Use(CORSMiddleware(opts.CORSAllowOrigins))

	h.RegisterRoutes(r, opts.RateLimiter)
	return r
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine, limiter *RateLimiter) {
	// 车辆信息
	api := r.Group("/vehicle-info")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	{
		api.GET("/vin/:vin", h.GetVehicleDetails)
		api.GET("/report/:vin", h.GetVehicleReport)

		// 查询历史，仅在配置数据库时提供
		if h.history != nil {
			api.GET("/lookups", h.ListLookups)
		}
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
