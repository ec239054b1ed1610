package authcore

import "context"

// Logout tears the session down. The identity service is notified first,
// best-effort: a notification failure is logged and never blocks the local
// reset. The reset bumps the session epoch, so responses from calls still
// in flight are discarded rather than resurrecting the session. DeviceID
// and login history survive iff RememberMe was set at logout time.
func (m *Manager) Logout(ctx context.Context, reason string) error {
	if reason == "" {
		reason = ReasonUserInitiated
	}
	m.metricInc(MetricLogout)
	m.teardown(ctx, reason, EventLogout)
	return nil
}

// forceLogout is the internal teardown for reasons the core decides
// itself: refresh failure, invalid token, session expiry.
func (m *Manager) forceLogout(ctx context.Context, reason string) {
	m.metricInc(MetricForcedLogout)
	m.teardown(ctx, reason, EventForcedLogout)
}

func (m *Manager) teardown(ctx context.Context, reason, eventType string) {
	snap := m.store.Snapshot()

	// Capture identity fields before the reset clears them.
	event := AuditEvent{
		EventType: eventType,
		Reason:    reason,
		Success:   true,
		SessionID: snap.SessionID,
		DeviceID:  snap.DeviceID,
	}
	if snap.User != nil {
		event.UserID = snap.User.ID
	}

	if snap.AccessToken != "" {
		if err := m.gw.Logout(ctx, snap.AccessToken, reason); err != nil {
			// Local clearing is unconditional; the service just won't
			// know until the token expires on its side.
			m.log.Warn().Err(err).Str("reason", reason).Msg("logout notification failed")
		}
	}

	m.store.Reset()
	m.auditEmit(ctx, event)
	m.log.Info().Str("reason", reason).Msg("session cleared")
}
