package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/propertyhub/authcore/gateway"
	"github.com/propertyhub/authcore/jwtclaims"
)

// RefreshToken rotates the token pair. Holding no refresh token is a
// client-precondition failure that forces logout without a network call.
// A gateway rejection or transport failure also forces logout: a refresh
// token the service will not honor, or a session whose state cannot be
// determined, is untrusted either way. On success the pair and expiry are
// replaced atomically — unless a logout raced the call, in which case the
// stale response is discarded.
func (m *Manager) RefreshToken(ctx context.Context) error {
	snap, epoch := m.store.SnapshotEpoch()
	if snap.RefreshToken == "" {
		m.forceLogout(ctx, ReasonNoRefreshToken)
		return ErrNoRefreshToken
	}

	payload, err := m.gw.Refresh(ctx, snap.RefreshToken)
	if err != nil {
		reason := ReasonRefreshError
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			reason = ReasonRefreshFailed
		}
		m.metricInc(MetricRefreshFailure)
		m.auditEmit(ctx, AuditEvent{EventType: EventRefreshFailed, Reason: reason, Error: err.Error()})
		m.forceLogout(ctx, reason)
		return fmt.Errorf("refresh token: %w", err)
	}

	expiry := payload.ExpiryTime()
	if expiry.IsZero() {
		if exp, ok := jwtclaims.ExpiresAt(payload.Token); ok {
			expiry = exp
		}
	}

	if !m.store.ApplyTokenRefresh(epoch, payload.Token, payload.RefreshToken, expiry, m.clock.Now()) {
		// Logout won the race; the rotated pair belongs to nobody now.
		m.metricInc(MetricRefreshDiscarded)
		m.log.Debug().Msg("discarded refresh response after logout")
		return nil
	}

	m.metricInc(MetricRefreshSuccess)
	m.auditEmit(ctx, AuditEvent{EventType: EventRefresh, Success: true})
	m.log.Debug().Time("expiry", expiry).Msg("token pair refreshed")
	return nil
}

// VerifyToken validates the held access token with the identity service
// and refreshes the profile projections from the response. With no token
// held it is a no-op returning false. Any rejection or transport failure
// forces logout.
func (m *Manager) VerifyToken(ctx context.Context) (bool, error) {
	snap, epoch := m.store.SnapshotEpoch()
	if snap.AccessToken == "" {
		return false, nil
	}

	user, err := m.gw.Verify(ctx, snap.AccessToken)
	if err != nil {
		reason := ReasonVerifyError
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			reason = ReasonTokenInvalid
		}
		m.forceLogout(ctx, reason)
		return false, fmt.Errorf("verify token: %w", err)
	}

	if !m.store.ApplyVerifiedUser(epoch, user) {
		m.log.Debug().Msg("discarded verify response after logout")
	}
	return true, nil
}

// CheckSession reports whether a valid session is held. Unauthenticated
// returns false. An expiry in the past tears the session down with reason
// session_expired and returns false. Otherwise true — and repeatedly
// calling it on a valid session mutates nothing.
func (m *Manager) CheckSession(ctx context.Context) bool {
	snap := m.store.Snapshot()
	if !snap.IsAuthenticated {
		return false
	}
	if snap.Expired(m.clock.Now()) {
		m.metricInc(MetricSessionExpired)
		m.forceLogout(ctx, ReasonSessionExpired)
		return false
	}
	return true
}

// ExtendSession asks for a fresh expiry without rotating tokens. A no-op
// when unauthenticated.
func (m *Manager) ExtendSession(ctx context.Context) error {
	snap, epoch := m.store.SnapshotEpoch()
	if !snap.IsAuthenticated {
		return nil
	}

	expiry, err := m.gw.ExtendSession(ctx, snap.AccessToken)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	m.store.ApplyExtendedExpiry(epoch, expiry, m.clock.Now())
	m.log.Debug().Time("expiry", expiry).Msg("session extended")
	return nil
}
