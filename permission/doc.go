// Package permission answers capability and role-membership questions over
// a session snapshot.
//
// Evaluation is deliberately simple: permission-string containment with a
// super-admin bypass, and exact role comparison. The functions are pure —
// no I/O, no mutation — so routing and UI code can call them on every
// render.
//
// # What this package must NOT do
//
//   - Define authorization policy beyond containment and the super-admin
//     bypass.
//   - Reach past the snapshot it was handed.
package permission
