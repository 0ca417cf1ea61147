package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/you/accountsvc/domain"
)

// MockClock is a settable clock.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock starts the clock at now
func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set pins the clock
func (c *MockClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// MockValueGenerator hands out predictable values.
// Tokens are "token-1", "token-2", ... and codes count up from 100000.
type MockValueGenerator struct {
	NewTokenFunc func() (string, error)
	NewCodeFunc  func() (string, error)

	mu     sync.Mutex
	tokens int
	codes  int
}

func (g *MockValueGenerator) NewToken() (string, error) {
	if g.NewTokenFunc != nil {
		return g.NewTokenFunc()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens++
	return fmt.Sprintf("token-%d", g.tokens), nil
}

func (g *MockValueGenerator) NewCode() (string, error) {
	if g.NewCodeFunc != nil {
		return g.NewCodeFunc()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.codes++
	return fmt.Sprintf("%06d", 100000+g.codes), nil
}

// MockThrottle implements domain.Throttle interface for testing
type MockThrottle struct {
	AllowFunc func(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

func (m *MockThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, window)
	}
	return true, 0, nil
}

// MockAuditLogger captures audit events.
type MockAuditLogger struct {
	LogEventFunc func(ctx context.Context, event *domain.AuditEvent) error

	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (m *MockAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.LogEventFunc != nil {
		return m.LogEventFunc(ctx, event)
	}
	return nil
}

// Events returns the captured events in order
func (m *MockAuditLogger) Events() []*domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditEvent(nil), m.events...)
}

// Types returns the captured event types in order
func (m *MockAuditLogger) Types() []domain.AuditEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.AuditEventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

// MockMetricsRecorder counts recorded outcomes.
type MockMetricsRecorder struct {
	mu           sync.Mutex
	Operations   map[string]int
	Failures     map[string]int
	EmailFailure map[string]int
}

// NewMockMetricsRecorder creates an empty recorder
func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{
		Operations:   map[string]int{},
		Failures:     map[string]int{},
		EmailFailure: map[string]int{},
	}
}

func (m *MockMetricsRecorder) OperationCompleted(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations[operation]++
	if err != nil {
		m.Failures[operation]++
	}
}

func (m *MockMetricsRecorder) EmailFailed(template string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmailFailure[template]++
}

// Compile-time interface compliance verification
var (
	_ domain.Clock           = (*MockClock)(nil)
	_ domain.ValueGenerator  = (*MockValueGenerator)(nil)
	_ domain.Throttle        = (*MockThrottle)(nil)
	_ domain.AuditLogger     = (*MockAuditLogger)(nil)
	_ domain.MetricsRecorder = (*MockMetricsRecorder)(nil)
)
