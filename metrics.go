package authcore

import "sync/atomic"

// MetricID identifies one internal counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful credential logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed credential logins.
	MetricLoginFailure
	// MetricLoginLocked counts logins rejected with an account lockout.
	MetricLoginLocked
	// MetricTwoFactorRequired counts logins answered with a 2FA challenge.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts completed 2FA verifications.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected 2FA codes.
	MetricTwoFactorFailure
	// MetricRefreshSuccess counts applied token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh rejections and transport errors.
	MetricRefreshFailure
	// MetricRefreshDiscarded counts refresh responses discarded by the
	// epoch guard after a concurrent logout.
	MetricRefreshDiscarded
	// MetricLogout counts user-initiated logouts.
	MetricLogout
	// MetricForcedLogout counts logouts the core forced (refresh failure,
	// invalid token, expiry).
	MetricForcedLogout
	// MetricSessionExpired counts sessions torn down by expiry checks.
	MetricSessionExpired
	// MetricPreferenceSyncFailure counts preference mirrors that failed
	// after the optimistic local apply.
	MetricPreferenceSyncFailure

	metricCount
)

var metricNames = map[MetricID]string{
	MetricLoginSuccess:          "login_success",
	MetricLoginFailure:          "login_failure",
	MetricLoginLocked:           "login_locked",
	MetricTwoFactorRequired:     "two_factor_required",
	MetricTwoFactorSuccess:      "two_factor_success",
	MetricTwoFactorFailure:      "two_factor_failure",
	MetricRefreshSuccess:        "refresh_success",
	MetricRefreshFailure:        "refresh_failure",
	MetricRefreshDiscarded:      "refresh_discarded",
	MetricLogout:                "logout",
	MetricForcedLogout:          "forced_logout",
	MetricSessionExpired:        "session_expired",
	MetricPreferenceSyncFailure: "preference_sync_failure",
}

// MetricName returns the stable export name for id; empty for unknown ids.
func MetricName(id MetricID) string {
	return metricNames[id]
}

// MetricIDs lists every counter in export order.
func MetricIDs() []MetricID {
	out := make([]MetricID, 0, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		out = append(out, id)
	}
	return out
}

// Metrics is a fixed table of atomic counters. A nil *Metrics is a valid
// no-op receiver.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies all counters. Safe for concurrent use.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
