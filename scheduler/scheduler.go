package scheduler

import (
	"sync"
	"time"
)

const (
	// DefaultRefreshLead is how long before expiry the proactive token
	// refresh fires.
	DefaultRefreshLead = 5 * time.Minute
	// DefaultCheckInterval is the period of the recurring session check.
	DefaultCheckInterval = time.Minute
)

// Config sizes the two timers. Zero values take the defaults.
type Config struct {
	RefreshLead   time.Duration
	CheckInterval time.Duration
}

// Callbacks connect the scheduler to the session core. Authenticated is
// consulted before either timer does work; Refresh and Check are invoked
// from timer goroutines and must be safe to call concurrently with user
// actions.
type Callbacks struct {
	Authenticated func() bool
	Refresh       func()
	Check         func()
}

// Scheduler owns the refresh one-shot and the recurring check tick. Use
// [New], then [Scheduler.Start]; feed it every expiry change through
// [Scheduler.SetExpiry].
type Scheduler struct {
	clock Clock
	cfg   Config
	cb    Callbacks

	mu      sync.Mutex
	timer   Timer
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds a stopped scheduler. A nil clock means [SystemClock].
func New(clock Clock, cfg Config, cb Callbacks) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	if cfg.RefreshLead <= 0 {
		cfg.RefreshLead = DefaultRefreshLead
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	return &Scheduler{
		clock: clock,
		cfg:   cfg,
		cb:    cb,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the recurring check tick. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	ticker := s.clock.NewTicker(s.cfg.CheckInterval)
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				if s.authenticated() {
					s.check()
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop cancels both timers and waits for the check loop to exit. The
// scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	started := s.started
	close(s.stop)
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// SetExpiry re-arms the proactive refresh for the new expiry. The
// previously armed timer is always cancelled first. A zero expiry only
// cancels. The timer fires RefreshLead before expiry, clamped to
// immediately when the expiry is nearer than that or already past.
func (s *Scheduler) SetExpiry(expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopped || expiry.IsZero() {
		return
	}

	d := expiry.Add(-s.cfg.RefreshLead).Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timer = s.clock.AfterFunc(d, func() {
		if s.authenticated() {
			s.refresh()
		}
	})
}

func (s *Scheduler) authenticated() bool {
	return s.cb.Authenticated != nil && s.cb.Authenticated()
}

func (s *Scheduler) refresh() {
	if s.cb.Refresh != nil {
		s.cb.Refresh()
	}
}

func (s *Scheduler) check() {
	if s.cb.Check != nil {
		s.cb.Check()
	}
}
