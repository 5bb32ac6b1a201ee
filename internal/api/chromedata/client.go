package chromedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/autodata/internal/metrics"
)

// DefaultBaseURL Chrome Data CVD 接口地址
const DefaultBaseURL = "https://cvd.api.chromedata.com:443/v1.0/CVD"

// ClientConfig 客户端配置
type ClientConfig struct {
	BaseURL     string
	Locale      string
	Credentials Credentials
	Timeout     time.Duration
}

// Client Chrome Data API 客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	locale     string
	creds      Credentials
	logger     *zap.Logger

	// 可替换，便于测试
	nonce func() string
	now   func() time.Time
}

// NewClient 创建新的 Chrome Data 客户端
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	locale := cfg.Locale
	if locale == "" {
		locale = "en_US"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		locale:  locale,
		creds:   cfg.Credentials,
		logger:  logger,
		nonce:   NewNonce,
		now:     time.Now,
	}
}

// GetVehicleInfo 根据 VIN 获取车辆信息，单次请求，不重试
func (c *Client) GetVehicleInfo(ctx context.Context, vin string) (*VehicleRecord, error) {
	start := time.Now()
	record, outcome, err := c.getVehicleInfo(ctx, vin)

	metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	metrics.ProviderRequestsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		c.logger.Warn("Chrome Data lookup failed",
			zap.String("vin", vin),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("Chrome Data lookup succeeded",
		zap.String("vin", vin),
		zap.Duration("duration", time.Since(start)),
	)
	return record, nil
}

func (c *Client) getVehicleInfo(ctx context.Context, vin string) (*VehicleRecord, string, error) {
	endpoint := fmt.Sprintf("%s/vin/%s?language_Locale=%s", c.baseURL, url.PathEscape(vin), url.QueryEscape(c.locale))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "transport_error", &ProviderError{Err: fmt.Errorf("create request: %w", err)}
	}

	// 签名每次重新生成
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", Sign(c.creds, c.nonce(), c.now().UnixMilli()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "transport_error", &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "transport_error", &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "http_error", &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "invalid_payload", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// error 为真或缺少 result 对象都视为无效响应
	if env.Error.Truthy() || !env.Result.IsObject() {
		return nil, "invalid_payload", ErrInvalidPayload
	}

	record := &VehicleRecord{Raw: env.Result}
	if !record.ValidVin() {
		return nil, "invalid_vin", ErrInvalidVIN
	}

	return record, "ok", nil
}
