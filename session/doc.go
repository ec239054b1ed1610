// Package session owns the client-side session record and the store that
// serializes every mutation of it.
//
// # State model
//
// [State] is the complete authenticated-state record: user profile, token
// pair, expiry, lockout and two-factor challenge state, bounded login
// history and activity log, and user preferences. [Store] is the single
// writer: each action method performs its read-decide-write under one lock
// acquisition so dependent fields (token pair + expiry, user + token) are
// always replaced together.
//
// # Epoch guard
//
// Every [Store.Reset] bumps a monotonically increasing epoch. Callers that
// apply the result of a network call capture the epoch before the call and
// pass it back on apply; a mismatch means a logout happened in between and
// the result is discarded. This is what prevents a stale refresh response
// from resurrecting a session the user already logged out of.
//
// # Architecture boundaries
//
// This package owns state transitions and the persistence codec. It does
// NOT perform I/O, talk to the identity service, or arm timers — those
// responsibilities belong to the Manager and its effects layer.
//
// # What this package must NOT do
//
//   - Import authcore, gateway, or scheduler (no upward imports).
//   - Persist transient fields (expiry, lockout, 2FA challenge, counters).
//   - Invoke subscribers while holding the store lock.
package session
