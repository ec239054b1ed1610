package gateway

import (
	"time"

	"github.com/propertyhub/authcore/session"
)

// LoginRequest is the credential-login body. DeviceID and UserAgent tag
// the request for the service's device history.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	RememberMe bool   `json:"rememberMe"`
	DeviceID   string `json:"deviceId,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// SessionPayload is the full session issued on a successful login or
// two-factor verification. ExpiresAt is in Unix milliseconds; a zero value
// means the service omitted it and the caller should derive the expiry
// from the access token itself.
type SessionPayload struct {
	User         *session.User `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    int64         `json:"expiresAt"`
	SessionID    string        `json:"sessionId"`
	IPAddress    string        `json:"ipAddress,omitempty"`
}

// ExpiryTime converts the millisecond expiry; zero when absent.
func (p *SessionPayload) ExpiryTime() time.Time {
	if p.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.ExpiresAt)
}

// TokenPayload is the rotated token pair returned by a refresh.
type TokenPayload struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// ExpiryTime converts the millisecond expiry; zero when absent.
func (p *TokenPayload) ExpiryTime() time.Time {
	if p.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.ExpiresAt)
}

type verifyResponse struct {
	User *session.User `json:"user"`
}

type extendResponse struct {
	ExpiresAt int64 `json:"expiresAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type twoFactorRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type logoutRequest struct {
	Reason string `json:"reason"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type preferencesRequest struct {
	Preferences session.Preferences `json:"preferences"`
}
