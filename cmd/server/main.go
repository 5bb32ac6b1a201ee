package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/api/handlers"
	"github.com/langchou/autodata/internal/config"
	"github.com/langchou/autodata/internal/report"
	"github.com/langchou/autodata/internal/repository"
	"github.com/langchou/autodata/internal/service"
	"github.com/langchou/autodata/pkg/ws"
)

const recentLookups = 20

func main() {
	// 加载配置
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting autodata", zap.String("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)

	// 查询历史（可选）
	var history *repository.LookupRepository
	if cfg.HistoryEnabled() {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database migrated successfully")

		history = repository.NewLookupRepository(db)
		wsHub.SetInitDataProvider(func() interface{} {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			lookups, err := history.ListRecent(ctx, recentLookups)
			if err != nil {
				logger.Warn("Failed to load recent lookups", zap.Error(err))
				return nil
			}
			return lookups
		})
	} else {
		logger.Info("DATABASE_URL not set, lookup history disabled")
	}

	// 创建服务
	client := chromedata.NewClient(cfg.ClientConfig(), logger)
	renderer := report.NewRenderer(cfg.ReportTitle, logger)
	opts := []service.Option{service.WithPublisher(wsHub)}
	var historyReader handlers.LookupHistory
	if history != nil {
		opts = append(opts, service.WithRecorder(history))
		historyReader = history
	}
	lookupService := service.NewLookupService(logger, client, renderer, opts...)

	// 设置 Gin 模式
	gin.SetMode(cfg.GetGinMode())

	// 创建路由
	var limiter *handlers.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = handlers.NewRateLimiter(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger)
	}
	handler := handlers.NewHandler(logger, lookupService, historyReader, wsHub)
	router := handler.NewRouter(handlers.RouterOptions{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		RateLimiter:      limiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run()
		return nil
	})

	if limiter != nil {
		g.Go(func() error {
			limiter.Cleanup(ctx, 5*time.Minute)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	// 等待退出信号后优雅关闭
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		wsHub.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	return g.Wait()
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
