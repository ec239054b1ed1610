package gateway

import (
	"context"
	"net/http"

	"github.com/propertyhub/authcore/session"
)

// Login submits credentials. On HTTP failure the returned error is an
// [*APIError] whose Code drives the caller's lockout and two-factor
// branching; transport failures return the wrapped transport error.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*SessionPayload, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", "", req)
	if err != nil {
		return nil, err
	}
	var payload SessionPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifyTwoFactor completes a pending challenge. The success payload has
// the same shape as a login success. On failure the challenge stays valid
// server-side so the user may retry.
func (c *Client) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*SessionPayload, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/verify-2fa", "", twoFactorRequest{
		Token: pendingToken,
		Code:  code,
	})
	if err != nil {
		return nil, err
	}
	var payload SessionPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Register submits the full registration form. Creation does not log the
// user in; no session payload comes back.
func (c *Client) Register(ctx context.Context, form map[string]any) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/register", "", form)
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{})
}

// Refresh exchanges a refresh token for a new pair. A rejection here means
// the refresh token itself is no longer trusted and the caller must force
// a full logout.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPayload, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	var payload TokenPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Verify validates the access token and returns the current profile.
func (c *Client) Verify(ctx context.Context, accessToken string) (*session.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/verify", accessToken, nil)
	if err != nil {
		return nil, err
	}
	var out verifyResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}
