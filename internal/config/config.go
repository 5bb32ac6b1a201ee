package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	"github.com/langchou/autodata/internal/api/chromedata"
)

// 配置错误
var (
	ErrMissingAppID     = errors.New("CHROMEDATA_APP_ID is required")
	ErrMissingAppSecret = errors.New("CHROMEDATA_APP_SECRET is required")
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// Database，为空时不记录查询历史
	DatabaseURL string

	// Chromedata API
	ChromedataBaseURL    string
	ChromedataLocale     string
	ChromedataRealm      string
	ChromedataAppID      string
	ChromedataAppSecret  string
	ChromedataAuthScheme string
	ChromedataTimeout    time.Duration

	// CORS
	CORSAllowOrigins []string

	// Rate limit
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// Report
	ReportTitle string
}

// Load 从环境变量加载配置
func Load() *Config {
	// 尝试加载 .env 文件（可选）
	loadDotEnv()

	return &Config{
		ServerPort: env.GetString("PORT", "4000"),
		Debug:      env.GetBool("DEBUG", false),

		DatabaseURL: env.GetString("DATABASE_URL", ""),

		ChromedataBaseURL:    env.GetString("CHROMEDATA_BASE_URL", chromedata.DefaultBaseURL),
		ChromedataLocale:     env.GetString("CHROMEDATA_LOCALE", "en_US"),
		ChromedataRealm:      env.GetString("CHROMEDATA_REALM", "http://communitymanager"),
		ChromedataAppID:      env.GetString("CHROMEDATA_APP_ID", ""),
		ChromedataAppSecret:  env.GetString("CHROMEDATA_APP_SECRET", ""),
		ChromedataAuthScheme: env.GetString("CHROMEDATA_AUTH_SCHEME", chromedata.DefaultScheme),
		ChromedataTimeout:    env.GetDuration("CHROMEDATA_TIMEOUT_SECONDS", 30, time.Second),

		CORSAllowOrigins: splitList(env.GetString("CORS_ALLOW_ORIGINS", "")),

		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 5.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 10),

		ReportTitle: env.GetString("REPORT_TITLE", "Vehicle Report"),
	}
}

// Validate 检查必填项
func (c *Config) Validate() error {
	var errs []error
	if c.ChromedataAppID == "" {
		errs = append(errs, ErrMissingAppID)
	}
	if c.ChromedataAppSecret == "" {
		errs = append(errs, ErrMissingAppSecret)
	}
	return errors.Join(errs...)
}

// HistoryEnabled 是否记录查询历史
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// Credentials 供应商签名凭据
func (c *Config) Credentials() chromedata.Credentials {
	return chromedata.Credentials{
		Scheme:    c.ChromedataAuthScheme,
		Realm:     c.ChromedataRealm,
		AppID:     c.ChromedataAppID,
		AppSecret: c.ChromedataAppSecret,
	}
}

// ClientConfig 供应商客户端配置
func (c *Config) ClientConfig() chromedata.ClientConfig {
	return chromedata.ClientConfig{
		BaseURL:     c.ChromedataBaseURL,
		Locale:      c.ChromedataLocale,
		Credentials: c.Credentials(),
		Timeout:     c.ChromedataTimeout,
	}
}

// GetGinMode gin 运行模式
func (c *Config) GetGinMode() string {
	if c.Debug {
		return "debug"
	}
	return "release"
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadDotEnv 从当前目录向上查找 .env 并加载
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
