package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/propertyhub/authcore/gateway"
	"github.com/propertyhub/authcore/scheduler"
	"github.com/propertyhub/authcore/session"
	"github.com/propertyhub/authcore/storage"
)

// stubGateway implements Gateway with per-method hooks. A nil hook
// returns the zero value and a nil error; tests set the hooks for the
// calls they exercise and inspect the recorded call names afterwards.
type stubGateway struct {
	mu    sync.Mutex
	calls []string

	loginFn           func(req gateway.LoginRequest) (*gateway.SessionPayload, error)
	verifyTwoFactorFn func(pendingToken, code string) (*gateway.SessionPayload, error)
	registerFn        func(form map[string]any) error
	logoutFn          func(accessToken, reason string) error
	refreshFn         func(refreshToken string) (*gateway.TokenPayload, error)
	verifyFn          func(accessToken string) (*session.User, error)
	updateProfileFn   func(accessToken string, fields map[string]any) (*session.User, error)
	changePasswordFn  func(accessToken, current, next string) error
	forgotPasswordFn  func(identifier string) error
	resetPasswordFn   func(token, newPassword string) error
	extendSessionFn   func(accessToken string) (time.Time, error)
	syncPreferencesFn func(accessToken string, prefs session.Preferences) error
}

func (s *stubGateway) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *stubGateway) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *stubGateway) Login(_ context.Context, req gateway.LoginRequest) (*gateway.SessionPayload, error) {
	s.record("Login")
	if s.loginFn == nil {
		return &gateway.SessionPayload{}, nil
	}
	return s.loginFn(req)
}

func (s *stubGateway) VerifyTwoFactor(_ context.Context, pendingToken, code string) (*gateway.SessionPayload, error) {
	s.record("VerifyTwoFactor")
	if s.verifyTwoFactorFn == nil {
		return &gateway.SessionPayload{}, nil
	}
	return s.verifyTwoFactorFn(pendingToken, code)
}

func (s *stubGateway) Register(_ context.Context, form map[string]any) error {
	s.record("Register")
	if s.registerFn == nil {
		return nil
	}
	return s.registerFn(form)
}

func (s *stubGateway) Logout(_ context.Context, accessToken, reason string) error {
	s.record("Logout")
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(accessToken, reason)
}

func (s *stubGateway) Refresh(_ context.Context, refreshToken string) (*gateway.TokenPayload, error) {
	s.record("Refresh")
	if s.refreshFn == nil {
		return &gateway.TokenPayload{}, nil
	}
	return s.refreshFn(refreshToken)
}

func (s *stubGateway) Verify(_ context.Context, accessToken string) (*session.User, error) {
	s.record("Verify")
	if s.verifyFn == nil {
		return nil, nil
	}
	return s.verifyFn(accessToken)
}

func (s *stubGateway) UpdateProfile(_ context.Context, accessToken string, fields map[string]any) (*session.User, error) {
	s.record("UpdateProfile")
	if s.updateProfileFn == nil {
		return nil, nil
	}
	return s.updateProfileFn(accessToken, fields)
}

func (s *stubGateway) ChangePassword(_ context.Context, accessToken, current, next string) error {
	s.record("ChangePassword")
	if s.changePasswordFn == nil {
		return nil
	}
	return s.changePasswordFn(accessToken, current, next)
}

func (s *stubGateway) ForgotPassword(_ context.Context, identifier string) error {
	s.record("ForgotPassword")
	if s.forgotPasswordFn == nil {
		return nil
	}
	return s.forgotPasswordFn(identifier)
}

func (s *stubGateway) ResetPassword(_ context.Context, token, newPassword string) error {
	s.record("ResetPassword")
	if s.resetPasswordFn == nil {
		return nil
	}
	return s.resetPasswordFn(token, newPassword)
}

func (s *stubGateway) ExtendSession(_ context.Context, accessToken string) (time.Time, error) {
	s.record("ExtendSession")
	if s.extendSessionFn == nil {
		return time.Time{}, nil
	}
	return s.extendSessionFn(accessToken)
}

func (s *stubGateway) SyncPreferences(_ context.Context, accessToken string, prefs session.Preferences) error {
	s.record("SyncPreferences")
	if s.syncPreferencesFn == nil {
		return nil
	}
	return s.syncPreferencesFn(accessToken, prefs)
}

// fakeClock is a manual scheduler.Clock. Advance moves time forward and
// fires due one-shots synchronously; Tick delivers one recurring tick.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	ticks  chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, ticks: make(chan time.Time, 4)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) NewTicker(time.Duration) scheduler.Ticker {
	return &fakeTicker{ch: c.ticks}
}

// Advance moves the clock and fires every armed one-shot whose deadline
// has passed, outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	var rest []*fakeTimer
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

// Tick delivers one recurring check tick.
func (c *fakeClock) Tick() {
	c.ticks <- c.Now()
}

func (c *fakeClock) dropTimers() {
	c.mu.Lock()
	c.timers = nil
	c.mu.Unlock()
}

func (c *fakeClock) armed() int {
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

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

type testEnv struct {
	manager *Manager
	gw      *stubGateway
	clock   *fakeClock
	sink    *ChannelSink
	durable *storage.Memory
}

func newTestManager(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		gw:      &stubGateway{},
		clock:   newFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
		sink:    NewChannelSink(64),
		durable: storage.NewMemory(),
	}

	m, err := New().
		WithConfig(Config{
			Audit:   AuditConfig{Enabled: true, BufferSize: 64},
			Metrics: MetricsConfig{Enabled: true},
		}).
		WithGateway(env.gw).
		WithClock(env.clock).
		WithStorage(env.durable).
		WithAuditSink(env.sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	env.manager = m
	return env
}

// sessionPayload builds a login success expiring 30 minutes out.
func sessionPayload(clock *fakeClock) *gateway.SessionPayload {
	return &gateway.SessionPayload{
		User: &session.User{
			ID:          "u1",
			Email:       "manager@example.com",
			Role:        "property_manager",
			Permissions: []string{"properties.read", "tenants.read"},
			Company:     &session.Company{ID: "c1", Name: "Northwind Property Group"},
		},
		Token:        "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    clock.Now().Add(30 * time.Minute).UnixMilli(),
		SessionID:    "sess-1",
	}
}

func mustLogin(t *testing.T, env *testEnv, rememberMe bool) *LoginResult {
	t.Helper()

	env.gw.loginFn = func(gateway.LoginRequest) (*gateway.SessionPayload, error) {
		return sessionPayload(env.clock), nil
	}
	result, err := env.manager.Login(context.Background(), Credentials{
		Identifier: "manager@example.com",
		Secret:     "correct-password",
		RememberMe: rememberMe,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !env.manager.Snapshot().IsAuthenticated {
		t.Fatal("expected authenticated snapshot after login")
	}
	return result
}

// waitFor polls cond for up to two seconds; background goroutines
// (preference mirroring) have no other completion signal.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func nextAuditEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("no %q audit event observed", eventType)
		}
	}
}

func metricValue(m *Manager, id MetricID) uint64 {
	return m.MetricsSnapshot().Counters[id]
}
