package authcore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/propertyhub/authcore/permission"
	"github.com/propertyhub/authcore/scheduler"
	"github.com/propertyhub/authcore/session"
	"github.com/propertyhub/authcore/storage"
)

// backgroundOpTimeout bounds the network calls the core makes on its own
// behalf (scheduled refresh, persistence, preference mirroring).
const backgroundOpTimeout = 10 * time.Second

// Manager is the session core. Construct it through [Builder.Build]; all
// methods are safe for concurrent use afterwards. The Manager owns the
// store, the lifecycle scheduler, durable persistence, audit, and metrics;
// the UI layer consumes it through its action methods and [Manager.Subscribe].
type Manager struct {
	cfg     Config
	gw      Gateway
	store   *session.Store
	durable storage.Storage
	sched   *scheduler.Scheduler
	clock   scheduler.Clock
	log     zerolog.Logger
	audit   *auditDispatcher
	metrics *Metrics

	expiryMu   sync.Mutex
	lastExpiry time.Time
}

// Close stops the lifecycle timers and flushes the audit dispatcher.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.sched != nil {
		m.sched.Stop()
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() session.State {
	return m.store.Snapshot()
}

// Subscribe registers fn to run with a state snapshot after every
// mutation. Reactive consumers (routing, view models) hang off this.
func (m *Manager) Subscribe(fn func(session.State)) {
	m.store.Subscribe(fn)
}

// Permissions returns an evaluator bound to this manager's snapshots.
func (m *Manager) Permissions() *permission.Evaluator {
	return permission.NewEvaluator(m.store.Snapshot)
}

// MetricsSnapshot copies the internal counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events the dispatcher dropped.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// LogActivity prepends a timestamped, user-tagged record to the activity
// log, evicting the oldest entries beyond the cap. Purely observational;
// it never affects expiry computation.
func (m *Manager) LogActivity(activityType, detail string) {
	m.store.AppendActivity(session.ActivityRecord{
		Type:      activityType,
		Detail:    detail,
		Timestamp: m.clock.Now(),
	})
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// auditEmit fills in the common identity fields and hands the event to the
// dispatcher.
func (m *Manager) auditEmit(ctx context.Context, event AuditEvent) {
	if m == nil || m.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = m.clock.Now()
	}
	if event.UserID == "" || event.DeviceID == "" || event.SessionID == "" {
		snap := m.store.Snapshot()
		if event.UserID == "" && snap.User != nil {
			event.UserID = snap.User.ID
		}
		if event.DeviceID == "" {
			event.DeviceID = snap.DeviceID
		}
		if event.SessionID == "" {
			event.SessionID = snap.SessionID
		}
	}
	m.audit.Emit(ctx, event)
}

// persistEffect writes the durable subset of every post-mutation snapshot.
// Persistence failures are logged, never surfaced: local state remains the
// source of truth.
func (m *Manager) persistEffect(snap session.State) {
	data, err := session.EncodePersisted(snap)
	if err != nil {
		m.log.Error().Err(err).Msg("encode session state for persistence")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
	defer cancel()
	if err := m.durable.Save(ctx, data); err != nil {
		m.log.Error().Err(err).Msg("persist session state")
	}
}

// expiryEffect re-arms the scheduler whenever the session expiry moves,
// including to zero. Timers are re-armed, never stacked.
func (m *Manager) expiryEffect(snap session.State) {
	m.expiryMu.Lock()
	changed := !snap.SessionExpiry.Equal(m.lastExpiry)
	if changed {
		m.lastExpiry = snap.SessionExpiry
	}
	m.expiryMu.Unlock()
	if changed {
		m.sched.SetExpiry(snap.SessionExpiry)
	}
}

// hydrate restores a prior persisted session, if any. A corrupt blob is
// logged and treated as no prior session.
func (m *Manager) hydrate(ctx context.Context) {
	data, err := m.durable.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn().Err(err).Msg("load persisted session state")
		}
		return
	}
	st, err := session.DecodePersisted(data)
	if err != nil {
		m.log.Warn().Err(err).Msg("discard corrupt persisted session state")
		return
	}
	m.store.Hydrate(st)
	m.log.Debug().
		Bool("authenticated", st.IsAuthenticated).
		Str("device_id", st.DeviceID).
		Msg("hydrated persisted session state")
}

// scheduledRefresh and scheduledCheck are the timer callbacks. They run on
// timer goroutines with their own bounded contexts.
func (m *Manager) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
	defer cancel()
	if err := m.RefreshToken(ctx); err != nil {
		m.log.Warn().Err(err).Msg("scheduled token refresh failed")
	}
}

func (m *Manager) scheduledCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
	defer cancel()
	m.CheckSession(ctx)
}

func (m *Manager) authenticated() bool {
	return m.store.Snapshot().IsAuthenticated
}
