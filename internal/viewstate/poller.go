package viewstate

import (
	"sync"
	"time"
)

// Poller is a single restartable interval task. Start is also a
// restart: it cancels any running loop and begins a fresh interval
// baseline, which is what a conversation-partner switch needs. Stop is
// idempotent and safe to call when already stopped. There is never
// more than one live timer per Poller.
type Poller struct {
	mu       sync.Mutex
	interval time.Duration
	tick     func()
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewPoller returns a stopped poller that invokes tick every interval
// once started.
func NewPoller(interval time.Duration, tick func()) *Poller {
	return &Poller{interval: interval, tick: tick}
}

// Start begins (or restarts) the interval loop. The first tick fires
// one full interval after Start; the immediate fetch on open is the
// caller's move.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	ch := make(chan struct{})
	p.stop = ch
	p.wg.Add(1)
	go p.loop(ch)
}

// Stop cancels the interval loop and waits for it to exit, so no tick
// can fire after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
	p.wg.Wait()
}

// Running reports whether the interval loop is live.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Poller) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Poller) loop(stop chan struct{}) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}
