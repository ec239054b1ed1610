package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/propertyhub/authcore/gateway"
	"github.com/propertyhub/authcore/jwtclaims"
	"github.com/propertyhub/authcore/session"
)

// Login authenticates with credentials. Outcomes:
//
//   - full session established: result with the new session id, nil error;
//   - second factor required: result with TwoFactorRequired set, nil
//     error, challenge state open on the snapshot;
//   - account locked: error wrapping [ErrAccountLocked], lockout state on
//     the snapshot;
//   - any other rejection or transport failure: error, attempt counter
//     incremented.
//
// A new login attempt abandons any challenge left over from a previous
// one.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if snap := m.store.Snapshot(); snap.TwoFactorRequired {
		m.store.AbandonTwoFactor()
	}

	deviceID := m.ensureDeviceID()
	m.store.SetLoading(true)
	epoch := m.store.Epoch()

	payload, err := m.gw.Login(ctx, gateway.LoginRequest{
		Identifier: creds.Identifier,
		Secret:     creds.Secret,
		RememberMe: creds.RememberMe,
		DeviceID:   deviceID,
		UserAgent:  m.cfg.Gateway.UserAgent,
	})
	if err != nil {
		return m.loginFailure(ctx, creds, err)
	}

	expiry := payload.ExpiryTime()
	if expiry.IsZero() {
		if exp, ok := jwtclaims.ExpiresAt(payload.Token); ok {
			expiry = exp
		}
	}

	applied := m.store.Establish(epoch, session.Payload{
		User:         payload.User,
		AccessToken:  payload.Token,
		RefreshToken: payload.RefreshToken,
		SessionID:    payload.SessionID,
		Expiry:       expiry,
	}, session.EstablishOpts{
		RememberMe:    creds.RememberMe,
		RecordHistory: true,
		ResetCounters: true,
		Identifier:    creds.Identifier,
	}, m.clock.Now())
	if !applied {
		// A logout reset the store while the login was in flight; the
		// response belongs to a session identity that no longer exists.
		m.store.SetLoading(false)
		return nil, ErrNotAuthenticated
	}

	m.metricInc(MetricLoginSuccess)
	m.auditEmit(ctx, AuditEvent{
		EventType: EventLogin,
		Success:   true,
		SessionID: payload.SessionID,
	})
	m.log.Info().Str("session_id", payload.SessionID).Msg("login succeeded")

	return &LoginResult{SessionID: payload.SessionID, User: payload.User}, nil
}

// loginFailure routes a login error into lockout, two-factor, or plain
// failure handling. Only service rejections carry a machine-readable code;
// transport failures take the generic path. A pending second factor is not
// a failure: it yields a result with TwoFactorRequired set and a nil
// error.
func (m *Manager) loginFailure(ctx context.Context, creds Credentials, err error) (*LoginResult, error) {
	now := m.clock.Now()

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case gateway.CodeAccountLocked:
			m.store.RecordLockout(creds.Identifier, apiErr.LockoutExpiryTime(), now)
			m.metricInc(MetricLoginLocked)
			m.auditEmit(ctx, AuditEvent{EventType: EventAccountLocked, Error: apiErr.Message})
			m.log.Warn().Str("identifier", creds.Identifier).Msg("login rejected: account locked")
			return nil, fmt.Errorf("%w: %s", ErrAccountLocked, apiErr.Message)

		case gateway.CodeTwoFactorRequired:
			m.store.BeginTwoFactor(apiErr.TwoFactorToken, creds.RememberMe)
			m.metricInc(MetricTwoFactorRequired)
			m.auditEmit(ctx, AuditEvent{EventType: EventTwoFactorRequired, Success: true})
			m.log.Info().Str("identifier", creds.Identifier).Msg("login pending second factor")
			return &LoginResult{TwoFactorRequired: true}, nil
		}
	}

	m.store.RecordLoginFailure(creds.Identifier, failureReason(err), now)
	m.metricInc(MetricLoginFailure)
	m.auditEmit(ctx, AuditEvent{EventType: EventLoginFailed, Error: err.Error()})
	m.log.Warn().Err(err).Str("identifier", creds.Identifier).Msg("login failed")
	return nil, fmt.Errorf("%w: %v", ErrLoginRejected, err)
}

// VerifyTwoFactor completes a pending challenge. Success behaves like a
// login success except the login history and failure counters are left
// untouched; failure keeps the challenge open so the user may retry.
func (m *Manager) VerifyTwoFactor(ctx context.Context, code string) (*LoginResult, error) {
	snap, epoch := m.store.SnapshotEpoch()
	if snap.TwoFactorToken == "" {
		return nil, ErrNoPendingTwoFactor
	}

	payload, err := m.gw.VerifyTwoFactor(ctx, snap.TwoFactorToken, code)
	if err != nil {
		m.metricInc(MetricTwoFactorFailure)
		m.auditEmit(ctx, AuditEvent{EventType: EventTwoFactorFailed, Error: err.Error()})
		m.log.Warn().Err(err).Msg("two-factor verification failed")
		return nil, fmt.Errorf("%w: %v", ErrTwoFactorRejected, err)
	}

	expiry := payload.ExpiryTime()
	if expiry.IsZero() {
		if exp, ok := jwtclaims.ExpiresAt(payload.Token); ok {
			expiry = exp
		}
	}

	applied := m.store.Establish(epoch, session.Payload{
		User:         payload.User,
		AccessToken:  payload.Token,
		RefreshToken: payload.RefreshToken,
		SessionID:    payload.SessionID,
		Expiry:       expiry,
	}, session.EstablishOpts{
		RememberMe: snap.RememberMe,
	}, m.clock.Now())
	if !applied {
		return nil, ErrNotAuthenticated
	}

	m.metricInc(MetricTwoFactorSuccess)
	m.auditEmit(ctx, AuditEvent{
		EventType: EventTwoFactorVerified,
		Success:   true,
		SessionID: payload.SessionID,
	})
	m.log.Info().Str("session_id", payload.SessionID).Msg("two-factor verification succeeded")

	return &LoginResult{SessionID: payload.SessionID, User: payload.User}, nil
}

// Register submits a registration form. Creation never auto-logs-in; the
// session state is untouched regardless of outcome.
func (m *Manager) Register(ctx context.Context, form map[string]any) error {
	if err := m.gw.Register(ctx, form); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// failureReason condenses an error into a short history-record reason.
func failureReason(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code != "" {
			return apiErr.Code
		}
		return apiErr.Message
	}
	return "network_error"
}
