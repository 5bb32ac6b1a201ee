package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"go.uber.org/zap"
)

// AccessLogMiddleware 请求日志，带请求 ID
func AccessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestid.Get(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// CORSMiddleware 跨域配置，未配置来源时允许所有来源
func CORSMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

// limiterEntry 单个 IP 的限流器
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// RateLimiter 按客户端 IP 限流
type RateLimiter struct {
	limiters sync.Map // IP -> *limiterEntry
	rps      float64
	burst    int
	logger   *zap.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		rps:    rps,
		burst:  burst,
		logger: logger,
	}
}

// fallbackRetryAfter 无法预约令牌时返回的 Retry-After 秒数
const fallbackRetryAfter = 60

// Middleware 超限返回 429 和 Retry-After
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := l.getLimiter(clientIP)

		if !limiter.Allow() {
			retryAfter := fallbackRetryAfter
			// rate 或 burst 为 0 时预约不可能成功，Delay 为 InfDuration
			if reservation := limiter.Reserve(); reservation.OK() {
				retryAfter = int(reservation.Delay().Seconds())
				reservation.Cancel()
			}
			if retryAfter < 1 {
				retryAfter = 1
			}

			l.logger.Debug("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.Int("retry_after", retryAfter),
			)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) getLimiter(ip string) *rate.Limiter {
	if val, ok := l.limiters.Load(ip); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(l.rps), l.burst),
		lastAccess: time.Now(),
	}
	actual, _ := l.limiters.LoadOrStore(ip, entry)
	return actual.(*limiterEntry).limiter
}

// Cleanup 定期清理一小时未访问的限流器，ctx 取消时退出
func (l *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune(time.Now().Add(-time.Hour))
		}
	}
}

func (l *RateLimiter) prune(threshold time.Time) {
	l.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			l.limiters.Delete(key)
		}
		return true
	})
}
