package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/propertyhub/authcore/session"
)

// Logout notifies the service the session ended. The call is best-effort:
// the caller clears local state regardless of what happens here.
func (c *Client) Logout(ctx context.Context, accessToken, reason string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", accessToken, logoutRequest{Reason: reason})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// ExtendSession requests a fresh expiry without rotating the token pair.
func (c *Client) ExtendSession(ctx context.Context, accessToken string) (time.Time, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/extend-session", accessToken, nil)
	if err != nil {
		return time.Time{}, err
	}
	var out extendResponse
	if err := decodeJSON(resp, &out); err != nil {
		return time.Time{}, err
	}
	if out.ExpiresAt == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(out.ExpiresAt), nil
}

// SyncPreferences mirrors the locally applied preferences to the service.
func (c *Client) SyncPreferences(ctx context.Context, accessToken string, prefs session.Preferences) error {
	resp, err := c.do(ctx, http.MethodPut, "/auth/preferences", accessToken, preferencesRequest{Preferences: prefs})
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{})
}
