package authcore

import "errors"

var (
	// ErrGatewayRequired is returned by Build when neither a gateway nor
	// a base URL was configured.
	ErrGatewayRequired = errors.New("gateway or base URL required")
	// ErrNotAuthenticated is returned by actions that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoPendingTwoFactor is returned by VerifyTwoFactor when no
	// challenge is open.
	ErrNoPendingTwoFactor = errors.New("no pending two-factor challenge")
	// ErrNoRefreshToken is the client-precondition failure of
	// RefreshToken; it forces a logout without a network call.
	ErrNoRefreshToken = errors.New("no refresh token held")
	// ErrAccountLocked wraps a login rejection carrying the
	// ACCOUNT_LOCKED code. The lockout expiry is on the session snapshot.
	ErrAccountLocked = errors.New("account locked")
	// ErrLoginRejected wraps every other login rejection.
	ErrLoginRejected = errors.New("login rejected")
	// ErrTwoFactorRejected wraps a rejected two-factor code; the
	// challenge stays open for retry.
	ErrTwoFactorRejected = errors.New("two-factor code rejected")
)
