// Package gateway is the thin request layer between the session core and
// the remote identity service.
//
// [Client] issues JSON-over-HTTP calls against the service's /auth
// endpoints and normalizes every outcome into one of three shapes: a typed
// success payload, an [*APIError] carrying the service's message and
// machine-readable code, or a wrapped transport error. The client itself
// is stateless — no retries, no caching, no token storage; the caller
// passes the bearer credential per call and owns all policy.
//
// # What this package must NOT do
//
//   - Mutate session state or decide lockout/two-factor branching.
//   - Retry, back off, or cache responses.
//   - Hold tokens between calls.
package gateway
