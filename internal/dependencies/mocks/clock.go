package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
)

// fireTimeout bounds how long Fire waits for a consumer
const fireTimeout = 2 * time.Second

// MockClock is a mock implementation of Clock for testing.
// Tickers it creates only fire when a test calls Fire.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	tickers     []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// NewTicker records and returns a manual ticker
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		clock:    c,
		Interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// TickerCount returns how many tickers have been created
func (c *MockClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// LastTicker returns the most recently created ticker, or nil
func (c *MockClock) LastTicker() *MockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// MockTicker is a ticker driven by the test
type MockTicker struct {
	clock    *MockClock
	Interval time.Duration
	c        chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.c
}

// Stop stops the ticker; pending and future Fire calls return false
func (t *MockTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

// Fire advances the clock by one interval and delivers a tick.
// It blocks until the consumer receives the tick and reports false if the
// ticker was stopped or nobody received it in time.
func (t *MockTicker) Fire() bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	t.clock.Advance(t.Interval)
	select {
	case t.c <- t.clock.Now():
		return true
	case <-t.stopped:
		return false
	case <-time.After(fireTimeout):
		return false
	}
}

// FireN delivers n ticks and returns how many were received
func (t *MockTicker) FireN(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		if !t.Fire() {
			break
		}
		delivered++
	}
	return delivered
}

// Stopped reports whether Stop has been called
func (t *MockTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
