package throttle

import (
	"context"
	"sync"
	"time"

	"sibank/internal/domain"
)

type window struct {
	failures int
	expires  time.Time
}

// Memory is an in-process Limiter.
type Memory struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]window
	lastSweep time.Time
}

// NewMemory allows max failures per key within period.
func NewMemory(max int, period time.Duration) *Memory {
	return &Memory{max: max, period: period, now: time.Now, windows: make(map[string]window)}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Allowed reports whether key is still below the failure limit.
func (m *Memory) Allowed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.current(key)
	return !ok || w.failures < m.max, nil
}

// Failed counts one failure for key.
func (m *Memory) Failed(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	w, ok := m.current(key)
	if !ok {
		w = window{expires: m.now().Add(m.period)}
	}
	w.failures++
	m.windows[key] = w
	return nil
}

// Reset clears the counter for key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// sweep drops expired windows at most once per period, so keys that are
// never queried again do not accumulate.
func (m *Memory) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < m.period {
		return
	}
	m.lastSweep = now
	for key, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, key)
		}
	}
}

func (m *Memory) current(key string) (window, bool) {
	w, ok := m.windows[key]
	if ok && !m.now().Before(w.expires) {
		delete(m.windows, key)
		return window{}, false
	}
	return w, ok
}

var _ domain.Limiter = (*Memory)(nil)
