package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/langchou/autodata/internal/metrics"
)

// 查询状态常量
const (
	StatePending   = "pending"
	StateFetching  = "fetching"
	StateFetched   = "fetched"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// 事件常量
const (
	EventFetch    = "fetch"
	EventReceive  = "receive"
	EventComplete = "complete"
	EventFail     = "fail"
)

// Transition 一次状态切换
type Transition struct {
	LookupID string    `json:"lookup_id"`
	VIN      string    `json:"vin"`
	Kind     string    `json:"kind"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}

// Machine 单次查询的生命周期状态机，每个请求一个，不共享
type Machine struct {
	mu       sync.Mutex
	lookupID string
	vin      string
	kind     string
	fsm      *fsm.FSM
	lastErr  string
	onChange func(Transition)
}

// NewMachine 创建状态机，初始状态为 pending
func NewMachine(lookupID, vin, kind string, onChange func(Transition)) *Machine {
	m := &Machine{
		lookupID: lookupID,
		vin:      vin,
		kind:     kind,
		onChange: onChange,
	}

	m.fsm = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: EventFetch, Src: []string{StatePending}, Dst: StateFetching},
			{Name: EventReceive, Src: []string{StateFetching}, Dst: StateFetched},
			{Name: EventComplete, Src: []string{StateFetched}, Dst: StateCompleted},
			{Name: EventFail, Src: []string{StatePending, StateFetching, StateFetched}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				metrics.LookupTransitions.WithLabelValues(e.Src, e.Dst).Inc()
				if m.onChange != nil {
					m.onChange(Transition{
						LookupID: m.lookupID,
						VIN:      m.vin,
						Kind:     m.kind,
						From:     e.Src,
						To:       e.Dst,
						At:       time.Now(),
						Error:    m.lastErr,
					})
				}
			},
		},
	)

	return m
}

// Current 当前状态
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.Current()
}

// Trigger 触发事件
func (m *Machine) Trigger(ctx context.Context, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	return nil
}

// Fail 进入 failed 状态并记录原因
func (m *Machine) Fail(ctx context.Context, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cause != nil {
		m.lastErr = cause.Error()
	}
	if err := m.fsm.Event(ctx, EventFail); err != nil {
		return fmt.Errorf("trigger event %s: %w", EventFail, err)
	}
	return nil
}

// Done 是否已到终态
func (m *Machine) Done() bool {
	s := m.Current()
	return s == StateCompleted || s == StateFailed
}
