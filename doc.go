// Package authcore is the client-side authentication and session core for
// the PropertyHub applications: credential login, two-factor step-up,
// proactive token refresh, lockout handling, permission derivation, and
// session-expiry enforcement against a remote identity service.
//
// The core is an explicitly constructed [Manager] built through [Builder];
// there is no package-level singleton. The Manager funnels every session
// mutation through one store, persists the durable subset of state after
// each change, and re-arms its lifecycle timers whenever the session
// expiry moves.
//
// # Architecture boundaries
//
// authcore is the public surface: [Manager], [Builder], [Config],
// [Credentials], audit and metrics value types. State transitions live in
// the session sub-package, HTTP in gateway, timers in scheduler, and
// durable storage behind the storage.Storage interface — the Manager is
// the only component that coordinates across them.
//
// # What this package must NOT do
//
//   - Render anything or hold UI state beyond the session record.
//   - Hash passwords or verify token signatures; both are the identity
//     service's job.
//   - Retry failed identity-service calls; callers own retry policy.
package authcore
