package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/config"
	"github.com/langchou/autodata/internal/report"
	"github.com/langchou/autodata/internal/service"
)

// options 全局参数
type options struct {
	baseURL string
	verbose bool
}

// NewRootCommand 创建 autodata 命令
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:               "autodata",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "VIN lookup and vehicle report CLI",
		Long: `Query the Chrome Data VIN decoding service from the command line.

Credentials are read from CHROMEDATA_APP_ID and CHROMEDATA_APP_SECRET
(environment or .env), the same as the server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Override CHROMEDATA_BASE_URL")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log provider requests to stderr")

	rootCmd.AddCommand(newLookupCommand(opts))
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newSignCommand(opts))

	return rootCmd
}

// Execute 运行命令
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 加载并校验配置
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.baseURL != "" {
		cfg.ChromedataBaseURL = o.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (o *options) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}

	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newService 按配置组装查询服务
func (o *options) newService() (*service.LookupService, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := o.logger()
	client := chromedata.NewClient(cfg.ClientConfig(), logger)
	renderer := report.NewRenderer(cfg.ReportTitle, logger)
	return service.NewLookupService(logger, client, renderer), nil
}
