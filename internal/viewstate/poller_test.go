package viewstate

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestPollerTicksWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int64
	p := NewPoller(5*time.Millisecond, func() { ticks.Add(1) })
	p.Start()
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 ticks, got %d", ticks.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestPollerNoTickAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int64
	p := NewPoller(time.Millisecond, func() { ticks.Add(1) })
	p.Start()
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Fatalf("tick fired after Stop returned: %d -> %d", after, got)
	}
	if p.Running() {
		t.Fatal("stopped poller still reports running")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewPoller(time.Millisecond, func() {})
	p.Stop() // never started
	p.Start()
	p.Stop()
	p.Stop()
}

func TestPollerRestartKeepsSingleLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var ticks atomic.Int64
	p := NewPoller(2*time.Millisecond, func() { ticks.Add(1) })

	// Repeated open/close/switch cycles must never stack timers.
	for i := 0; i < 10; i++ {
		p.Start()
	}
	time.Sleep(21 * time.Millisecond)
	p.Stop()

	// A single 2ms loop fires roughly 10 times in 21ms; stacked loops
	// would be far beyond the bound.
	if got := ticks.Load(); got > 30 {
		t.Fatalf("tick rate suggests stacked timers: %d ticks", got)
	}
}
