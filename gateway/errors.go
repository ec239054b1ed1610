package gateway

import (
	"encoding/json"
	"fmt"
	"time"
)

// Machine-readable failure codes the identity service is known to return.
// Unknown codes pass through on [APIError.Code] and take the generic
// failure path in the caller.
const (
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeTwoFactorRequired  = "TWO_FACTOR_REQUIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)

// APIError is a structured rejection from the identity service (non-2xx
// with a JSON body). Only service rejections carry a Code; transport
// failures surface as plain wrapped errors instead.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`

	// LockoutExpiry accompanies CodeAccountLocked, in Unix milliseconds.
	LockoutExpiry int64 `json:"lockoutExpiry,omitempty"`
	// TwoFactorToken accompanies CodeTwoFactorRequired.
	TwoFactorToken string `json:"twoFactorToken,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity service rejected request (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity service rejected request (%d): %s", e.Status, e.Message)
}

// LockoutExpiryTime converts the millisecond lockout expiry to a
// time.Time; zero when the error carries none.
func (e *APIError) LockoutExpiryTime() time.Time {
	if e.LockoutExpiry == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.LockoutExpiry)
}

// parseErrorBody builds an *APIError from a non-2xx response body. Bodies
// that are not the expected JSON shape still produce a usable error with
// the raw body as message.
func parseErrorBody(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		msg := string(body)
		if msg == "" {
			msg = "request failed"
		}
		apiErr.Message = msg
	}
	return apiErr
}
