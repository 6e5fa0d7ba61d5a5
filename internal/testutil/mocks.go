package testutil

import (
	"sync"
	"sync/atomic"
	"time"
)

// MockClock is a controllable clock for schedulers under test.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// WakeRecorder is a waker that counts how often it was woken. An optional
// OnWake hook runs on every wake, which lets tests re-enter a channel from
// inside a wake callback.
type WakeRecorder struct {
	count  atomic.Int64
	OnWake func()
}

// Wake implements the channel waker contract.
func (w *WakeRecorder) Wake() {
	w.count.Add(1)
	if w.OnWake != nil {
		w.OnWake()
	}
}

// Count returns the number of wakes so far.
func (w *WakeRecorder) Count() int {
	return int(w.count.Load())
}
