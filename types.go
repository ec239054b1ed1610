package authcore

import (
	"context"
	"time"

	"github.com/propertyhub/authcore/gateway"
	"github.com/propertyhub/authcore/session"
)

// Credentials is a login request as the UI collects it.
type Credentials struct {
	Identifier string
	Secret     string
	RememberMe bool
}

// LoginResult reports the outcome of a successful Login or VerifyTwoFactor
// call. TwoFactorRequired means the credentials were accepted but a second
// factor is pending; no session exists yet and the caller should prompt
// for the code.
type LoginResult struct {
	TwoFactorRequired bool
	SessionID         string
	User              *session.User
}

// Logout reasons reported to the identity service and to audit sinks.
const (
	ReasonUserInitiated  = "user_initiated"
	ReasonNoRefreshToken = "no_refresh_token"
	ReasonRefreshFailed  = "refresh_failed"
	ReasonRefreshError   = "refresh_error"
	ReasonTokenInvalid   = "token_invalid"
	ReasonVerifyError    = "verify_error"
	ReasonSessionExpired = "session_expired"
)

// Gateway is the identity-service surface the Manager consumes. The
// gateway package provides the HTTP implementation; tests substitute a
// stub.
type Gateway interface {
	Login(ctx context.Context, req gateway.LoginRequest) (*gateway.SessionPayload, error)
	VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*gateway.SessionPayload, error)
	Register(ctx context.Context, form map[string]any) error
	Logout(ctx context.Context, accessToken, reason string) error
	Refresh(ctx context.Context, refreshToken string) (*gateway.TokenPayload, error)
	Verify(ctx context.Context, accessToken string) (*session.User, error)
	UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*session.User, error)
	ChangePassword(ctx context.Context, accessToken, current, next string) error
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ExtendSession(ctx context.Context, accessToken string) (time.Time, error)
	SyncPreferences(ctx context.Context, accessToken string, prefs session.Preferences) error
}
