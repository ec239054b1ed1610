package scheduler

import (
	"sync"
	"testing"
	"time"
)

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
	ticks  chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{
		now:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		ticks: make(chan time.Time),
	}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	return &manualTicker{ch: c.ticks}
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due, rest []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (c *manualClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type manualTimer struct {
	clock    *manualClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

type manualTicker struct{ ch chan time.Time }

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

type callbackLog struct {
	mu        sync.Mutex
	refreshes int
	checks    int
	authed    bool
}

func (l *callbackLog) callbacks() Callbacks {
	return Callbacks{
		Authenticated: func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.authed
		},
		Refresh: func() {
			l.mu.Lock()
			l.refreshes++
			l.mu.Unlock()
		},
		Check: func() {
			l.mu.Lock()
			l.checks++
			l.mu.Unlock()
		},
	}
}

func (l *callbackLog) refreshCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes
}

func (l *callbackLog) checkCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checks
}

func waitForCount(t *testing.T, got func() int, want int, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("%s: got %d, want %d", msg, got(), want)
}

func TestRefreshFiresLeadBeforeExpiry(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	defer s.Stop()

	s.SetExpiry(clock.Now().Add(30 * time.Minute))

	clock.advance(24 * time.Minute)
	if log.refreshCount() != 0 {
		t.Fatal("refresh fired before expiry minus lead")
	}
	clock.advance(time.Minute)
	if log.refreshCount() != 1 {
		t.Fatalf("refresh count = %d, want 1", log.refreshCount())
	}
}

func TestRefreshClampedToImmediateWhenExpiryNear(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	defer s.Stop()

	// Expiry closer than the lead: the timer arms at zero delay.
	s.SetExpiry(clock.Now().Add(2 * time.Minute))
	clock.advance(0)
	if log.refreshCount() != 1 {
		t.Fatalf("refresh count = %d, want immediate fire", log.refreshCount())
	}
}

func TestSetExpiryReArmsNotStacks(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	defer s.Stop()

	for i := 1; i <= 4; i++ {
		s.SetExpiry(clock.Now().Add(time.Duration(i) * time.Hour))
	}
	if clock.armed() != 1 {
		t.Fatalf("armed timers = %d, want 1", clock.armed())
	}

	clock.advance(5 * time.Hour)
	if log.refreshCount() != 1 {
		t.Fatalf("refresh count = %d: stacked timers fired", log.refreshCount())
	}
}

func TestZeroExpiryOnlyCancels(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	defer s.Stop()

	s.SetExpiry(clock.Now().Add(time.Hour))
	s.SetExpiry(time.Time{})

	if clock.armed() != 0 {
		t.Fatalf("armed timers = %d, want 0", clock.armed())
	}
	clock.advance(2 * time.Hour)
	if log.refreshCount() != 0 {
		t.Fatal("cancelled timer fired")
	}
}

func TestRefreshSkippedWhenUnauthenticated(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: false}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	defer s.Stop()

	s.SetExpiry(clock.Now().Add(time.Minute))
	clock.advance(time.Minute)
	if log.refreshCount() != 0 {
		t.Fatal("refresh must be gated on authentication")
	}
}

func TestCheckTickGatedOnAuthentication(t *testing.T) {
	clock := newManualClock()

	var mu sync.Mutex
	authed := false
	gateEvaluated := make(chan bool, 4)
	checks := make(chan struct{}, 4)

	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, Callbacks{
		Authenticated: func() bool {
			mu.Lock()
			v := authed
			mu.Unlock()
			gateEvaluated <- v
			return v
		},
		Check: func() { checks <- struct{}{} },
	})
	s.Start()
	defer s.Stop()

	clock.ticks <- clock.Now()
	if v := <-gateEvaluated; v {
		t.Fatal("gate evaluated authenticated before login")
	}

	mu.Lock()
	authed = true
	mu.Unlock()

	clock.ticks <- clock.Now()
	if v := <-gateEvaluated; !v {
		t.Fatal("gate did not see authentication")
	}
	select {
	case <-checks:
	case <-time.After(2 * time.Second):
		t.Fatal("check did not run on the authenticated tick")
	}
}

func TestStopCancelsTimersAndJoinsLoop(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()

	s.SetExpiry(clock.Now().Add(time.Minute))
	s.Stop()

	clock.advance(time.Hour)
	if log.refreshCount() != 0 {
		t.Fatal("timer fired after Stop")
	}

	// SetExpiry after Stop must not arm anything.
	s.SetExpiry(clock.Now().Add(time.Minute))
	if clock.armed() != 0 {
		t.Fatalf("armed timers after Stop = %d", clock.armed())
	}

	// Stop is idempotent.
	s.Stop()
}

func TestStartTwiceIsNoOp(t *testing.T) {
	clock := newManualClock()
	log := &callbackLog{authed: true}
	s := New(clock, Config{RefreshLead: 5 * time.Minute, CheckInterval: time.Minute}, log.callbacks())
	s.Start()
	s.Start()
	defer s.Stop()

	clock.ticks <- clock.Now()
	waitForCount(t, log.checkCount, 1, "single loop consuming ticks")
}

func TestDefaultsApplied(t *testing.T) {
	s := New(nil, Config{}, Callbacks{})
	if s.clock != SystemClock {
		t.Fatal("nil clock must default to SystemClock")
	}
	if s.cfg.RefreshLead != DefaultRefreshLead || s.cfg.CheckInterval != DefaultCheckInterval {
		t.Fatalf("defaults not applied: %+v", s.cfg)
	}
}
