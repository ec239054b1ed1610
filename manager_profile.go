package authcore

import (
	"context"
	"fmt"

	"github.com/propertyhub/authcore/session"
)

// UpdateProfile sends a partial profile update and installs the service's
// updated view of the user.
func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]any) error {
	snap, epoch := m.store.SnapshotEpoch()
	if !snap.IsAuthenticated {
		return ErrNotAuthenticated
	}

	user, err := m.gw.UpdateProfile(ctx, snap.AccessToken, fields)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	m.store.ApplyVerifiedUser(epoch, user)
	return nil
}

// ChangePassword rotates the account password.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	snap := m.store.Snapshot()
	if !snap.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if err := m.gw.ChangePassword(ctx, snap.AccessToken, current, next); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// ForgotPassword starts the unauthenticated reset flow.
func (m *Manager) ForgotPassword(ctx context.Context, identifier string) error {
	if err := m.gw.ForgotPassword(ctx, identifier); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword completes the reset flow with the emailed token.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := m.gw.ResetPassword(ctx, token, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// UpdatePreferences applies the partial update locally first — local state
// is the source of truth — then mirrors the merged preferences to the
// identity service in the background. A mirror failure is logged and
// counted, never rolled back or surfaced.
func (m *Manager) UpdatePreferences(ctx context.Context, partial session.Preferences) error {
	merged := m.store.MergePreferences(partial)

	snap := m.store.Snapshot()
	if !snap.IsAuthenticated {
		return nil
	}
	token := snap.AccessToken

	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
		defer cancel()
		if err := m.gw.SyncPreferences(syncCtx, token, merged); err != nil {
			m.metricInc(MetricPreferenceSyncFailure)
			m.auditEmit(syncCtx, AuditEvent{EventType: EventPreferenceSync, Error: err.Error()})
			m.log.Warn().Err(err).Msg("preference sync failed; local state kept")
		}
	}()
	return nil
}
