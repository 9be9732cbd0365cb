// Package cubbytest provides test utilities for cubby.
package cubbytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/cubby"
	"github.com/zoobzio/cubby/memory"
)

// Epoch is the start time of clocks created by NewClock.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced time source.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock creates a clock stopped at Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Fixture bundles a Drive with the memory provider and clock behind it.
type Fixture struct {
	Drive    *cubby.Drive
	Provider *memory.Provider
	Clock    *Clock
}

// NewFixture builds a Drive over a fresh memory provider sharing one clock.
func NewFixture(opts ...cubby.Option) *Fixture {
	clock := NewClock()
	provider := memory.New(
		memory.WithSecret([]byte("cubbytest-secret")),
		memory.WithClock(clock.Now),
	)
	opts = append([]cubby.Option{cubby.WithClock(clock.Now)}, opts...)
	return &Fixture{
		Drive:    cubby.New(provider, opts...),
		Provider: provider,
		Clock:    clock,
	}
}

// CapturedEvent represents an event captured during testing.
type CapturedEvent struct {
	Signal    capitan.Signal
	Fields    []capitan.Field
	Timestamp time.Time
}

// EventCapture captures cubby events for verification in tests.
type EventCapture struct {
	events   []CapturedEvent
	releases []func(context.Context)
	mu       sync.Mutex
}

// NewEventCapture creates a new event capture utility.
func NewEventCapture() *EventCapture {
	return &EventCapture{
		events: make([]CapturedEvent, 0),
	}
}

// Handler returns a capitan.EventCallback that captures events.
func (c *EventCapture) Handler() capitan.EventCallback {
	return func(_ context.Context, e *capitan.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.events = append(c.events, CapturedEvent{
			Signal:    e.Signal(),
			Fields:    e.Fields(),
			Timestamp: time.Now(),
		})
	}
}

// Listen hooks the capture to sigs, or to every cubby signal when none are
// given.
func (c *EventCapture) Listen(sigs ...capitan.Signal) {
	if len(sigs) == 0 {
		for _, info := range cubby.Signals {
			sigs = append(sigs, info.Signal)
		}
	}
	handler := c.Handler()
	for _, sig := range sigs {
		l := capitan.Hook(sig, handler)
		c.mu.Lock()
		c.releases = append(c.releases, func(ctx context.Context) {
			_ = l.Drain(ctx)
			l.Close()
		})
		c.mu.Unlock()
	}
}

// Stop waits for pending events to be delivered and unhooks every listener.
func (c *EventCapture) Stop(ctx context.Context) {
	c.mu.Lock()
	releases := c.releases
	c.releases = nil
	c.mu.Unlock()

	for _, release := range releases {
		release(ctx)
	}
}

// Capture hooks a new EventCapture to sigs (all cubby signals when none)
// and stops it when the test ends.
func Capture(t testing.TB, sigs ...capitan.Signal) *EventCapture {
	t.Helper()
	c := NewEventCapture()
	c.Listen(sigs...)
	t.Cleanup(func() { c.Stop(context.Background()) })
	return c
}

// Events returns a copy of all captured events.
func (c *EventCapture) Events() []CapturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]CapturedEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Count returns the number of captured events.
func (c *EventCapture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.events)
}

// Reset clears all captured events.
func (c *EventCapture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = make([]CapturedEvent, 0)
}

// WaitForCount blocks until the specified number of events are captured or timeout.
func (c *EventCapture) WaitForCount(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Count() >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return c.Count() >= n
}

// EventsBySignal returns events filtered by signal.
func (c *EventCapture) EventsBySignal(sig capitan.Signal) []CapturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]CapturedEvent, 0)
	for _, e := range c.events {
		if e.Signal == sig {
			result = append(result, e)
		}
	}
	return result
}

// WaitForSignal blocks until at least one sig event is captured or timeout.
func (c *EventCapture) WaitForSignal(sig capitan.Signal, timeout time.Duration) ([]CapturedEvent, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if events := c.EventsBySignal(sig); len(events) > 0 {
			return events, true
		}
		if !time.Now().Before(deadline) {
			return nil, false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// EventCounter counts events without storing them.
type EventCounter struct {
	count int64
	mu    sync.Mutex
}

// NewEventCounter creates a new event counter.
func NewEventCounter() *EventCounter {
	return &EventCounter{}
}

// Handler returns a capitan.EventCallback that increments the counter.
func (c *EventCounter) Handler() capitan.EventCallback {
	return func(_ context.Context, _ *capitan.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.count++
	}
}

// Count returns the current count.
func (c *EventCounter) Count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Reset resets the counter to zero.
func (c *EventCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = 0
}
