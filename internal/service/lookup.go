package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/jsonvalue"
	"github.com/langchou/autodata/internal/models"
	"github.com/langchou/autodata/internal/report"
	"github.com/langchou/autodata/internal/state"
	"github.com/langchou/autodata/internal/validation"
	"github.com/langchou/autodata/internal/vehicle"
)

const recordTimeout = 5 * time.Second

// VehicleInfoFetcher 车辆数据来源
type VehicleInfoFetcher interface {
	GetVehicleInfo(ctx context.Context, vin string) (*chromedata.VehicleRecord, error)
}

// ReportRenderer 报告生成器
type ReportRenderer interface {
	Render(vin string, doc jsonvalue.Value) ([]byte, error)
}

// LookupRecorder 查询记录存储
type LookupRecorder interface {
	Create(ctx context.Context, lookup *models.Lookup) error
}

// EventPublisher 查询状态推送
type EventPublisher interface {
	PublishLookupState(state interface{})
}

// Kind 错误分类
type Kind int

const (
	KindUnknown       Kind = iota
	KindInvalidInput       // VIN 格式错误、供应商判定 VIN 无效、响应结构错误
	KindNotFound           // 供应商无记录或调用失败
	KindReportFailure      // 报告生成失败
)

// Classify 将错误归类
func Classify(err error) Kind {
	var providerErr *chromedata.ProviderError
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, validation.ErrInvalidVIN),
		errors.Is(err, chromedata.ErrInvalidVIN),
		errors.Is(err, chromedata.ErrInvalidPayload):
		return KindInvalidInput
	case errors.As(err, &providerErr):
		return KindNotFound
	case errors.Is(err, report.ErrReportGeneration):
		return KindReportFailure
	default:
		return KindUnknown
	}
}

// Option LookupService 可选项
type Option func(*LookupService)

// WithRecorder 启用查询记录
func WithRecorder(recorder LookupRecorder) Option {
	return func(s *LookupService) { s.recorder = recorder }
}

// WithPublisher 启用状态推送
func WithPublisher(publisher EventPublisher) Option {
	return func(s *LookupService) { s.publisher = publisher }
}

// LookupService VIN 查询服务
type LookupService struct {
	logger    *zap.Logger
	fetcher   VehicleInfoFetcher
	renderer  ReportRenderer
	recorder  LookupRecorder
	publisher EventPublisher
	now       func() time.Time
}

// NewLookupService 创建查询服务
func NewLookupService(logger *zap.Logger, fetcher VehicleInfoFetcher, renderer ReportRenderer, opts ...Option) *LookupService {
	s := &LookupService{
		logger:   logger,
		fetcher:  fetcher,
		renderer: renderer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetVehicleDetails 查询并规整车辆信息
func (s *LookupService) GetVehicleDetails(ctx context.Context, vin string) (*vehicle.Details, error) {
	vin = validation.NormalizeVIN(vin)
	if err := validation.ValidateVIN(vin); err != nil {
		return nil, err
	}

	l := s.begin(ctx, vin, models.LookupKindDetails)

	record, err := l.fetch(ctx)
	if err != nil {
		l.finish(ctx, nil, err)
		return nil, err
	}

	details := vehicle.Normalize(record, vin)
	l.finish(ctx, &details, nil)
	return &details, nil
}

// GetVehicleReport 查询车辆信息并生成 PDF 报告
func (s *LookupService) GetVehicleReport(ctx context.Context, vin string) ([]byte, error) {
	vin = validation.NormalizeVIN(vin)
	if err := validation.ValidateVIN(vin); err != nil {
		return nil, err
	}

	l := s.begin(ctx, vin, models.LookupKindReport)

	record, err := l.fetch(ctx)
	if err != nil {
		l.finish(ctx, nil, err)
		return nil, err
	}

	pdf, err := s.renderer.Render(vin, record.Raw)
	if err != nil {
		l.finish(ctx, nil, err)
		return nil, err
	}

	details := vehicle.Normalize(record, vin)
	l.finish(ctx, &details, nil)
	return pdf, nil
}

// lookup 单次查询的上下文
type lookup struct {
	svc     *LookupService
	id      string
	vin     string
	kind    string
	started time.Time
	machine *state.Machine
}

func (s *LookupService) begin(ctx context.Context, vin, kind string) *lookup {
	l := &lookup{
		svc:     s,
		id:      uuid.NewString(),
		vin:     vin,
		kind:    kind,
		started: s.now(),
	}
	l.machine = state.NewMachine(l.id, vin, kind, s.onTransition)
	l.trigger(ctx, state.EventFetch)
	return l
}

func (s *LookupService) onTransition(tr state.Transition) {
	s.logger.Debug("Lookup state changed",
		zap.String("lookup_id", tr.LookupID),
		zap.String("vin", tr.VIN),
		zap.String("from", tr.From),
		zap.String("to", tr.To),
	)
	if s.publisher != nil {
		s.publisher.PublishLookupState(tr)
	}
}

func (l *lookup) fetch(ctx context.Context) (*chromedata.VehicleRecord, error) {
	record, err := l.svc.fetcher.GetVehicleInfo(ctx, l.vin)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, chromedata.ErrInvalidPayload
	}
	l.trigger(ctx, state.EventReceive)
	return record, nil
}

func (l *lookup) trigger(ctx context.Context, event string) {
	if err := l.machine.Trigger(ctx, event); err != nil {
		l.svc.logger.Warn("Lookup state transition rejected",
			zap.String("lookup_id", l.id),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// finish 结束状态机并写入查询记录
func (l *lookup) finish(ctx context.Context, details *vehicle.Details, cause error) {
	entry := &models.Lookup{
		LookupID:   l.id,
		VIN:        l.vin,
		Kind:       l.kind,
		Status:     models.LookupStatusOK,
		DurationMs: l.svc.now().Sub(l.started).Milliseconds(),
		CreatedAt:  l.started,
	}

	if cause != nil {
		if err := l.machine.Fail(ctx, cause); err != nil {
			l.svc.logger.Warn("Lookup state transition rejected", zap.String("lookup_id", l.id), zap.Error(err))
		}
		msg := cause.Error()
		entry.Status = models.LookupStatusFailed
		entry.Error = &msg
		l.svc.logger.Info("Vehicle lookup failed",
			zap.String("vin", l.vin),
			zap.String("kind", l.kind),
			zap.Error(cause),
		)
	} else {
		l.trigger(ctx, state.EventComplete)
		if details != nil {
			entry.Make = details.Make
			entry.Model = details.Model
			entry.Year = details.Year
		}
	}

	l.record(ctx, entry)
}

func (l *lookup) record(ctx context.Context, entry *models.Lookup) {
	if l.svc.recorder == nil {
		return
	}

	// 请求被取消时仍然写入记录
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := l.svc.recorder.Create(ctx, entry); err != nil {
		l.svc.logger.Error("Failed to record lookup",
			zap.String("lookup_id", l.id),
			zap.String("vin", l.vin),
			zap.Error(err),
		)
	}
}
