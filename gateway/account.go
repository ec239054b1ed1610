package gateway

import (
	"context"
	"net/http"

	"github.com/propertyhub/authcore/session"
)

// UpdateProfile sends a partial profile update and returns the service's
// view of the updated user.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*session.User, error) {
	resp, err := c.do(ctx, http.MethodPut, "/auth/profile", accessToken, fields)
	if err != nil {
		return nil, err
	}
	var out verifyResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ChangePassword rotates the account password for the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, accessToken, current, next string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/change-password", accessToken, changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{})
}

// ForgotPassword starts an unauthenticated reset flow for the identifier.
func (c *Client) ForgotPassword(ctx context.Context, identifier string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/forgot-password", "", forgotPasswordRequest{Identifier: identifier})
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{})
}

// ResetPassword completes a reset flow with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/reset-password", "", resetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{})
}
