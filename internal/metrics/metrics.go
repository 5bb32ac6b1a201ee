package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// 定义指标变量
var (
	// ProviderRequestsTotal 调用 Chrome Data 的次数
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodata_provider_requests_total",
			Help: "Total number of VIN lookups sent to the vehicle data provider.",
		},
		[]string{"outcome"}, // ok / transport_error / http_error / invalid_payload / invalid_vin
	)

	// ProviderLatency 供应商调用耗时
	ProviderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autodata_provider_request_duration_seconds",
			Help:    "Latency of vehicle data provider calls.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ReportsTotal PDF 报告生成次数
	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodata_reports_total",
			Help: "Total number of PDF reports rendered.",
		},
		[]string{"status"},
	)

	// LookupTransitions 查询生命周期状态切换
	LookupTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodata_lookup_transitions_total",
			Help: "Lookup lifecycle state transitions.",
		},
		[]string{"from", "to"},
	)

	// HTTPRequestsTotal HTTP 请求数
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodata_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autodata_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderLatency,
		ReportsTotal,
		LookupTransitions,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// GinMiddleware 记录 HTTP 请求指标，path 使用路由模板避免高基数
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
