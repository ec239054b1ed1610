// Package scheduler drives the background half of the session lifecycle:
// a one-shot refresh timer re-armed on every expiry change, and a
// recurring session-validity check.
//
// Timers are cancellable and re-armed, never stacked: [Scheduler.SetExpiry]
// always cancels the previously armed refresh timer before arming a new
// one. The scheduler performs no work while unauthenticated beyond the
// idle recurring tick.
//
// Time is injected through [Clock] so tests control it deterministically;
// production code passes [SystemClock].
package scheduler
