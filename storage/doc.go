// Package storage abstracts the durable client storage the session core
// persists its state blob into.
//
// Three backends ship by default: [File] for a single-user desktop/CLI
// process, [Redis] for deployments that keep per-device session state in a
// shared store, and [Memory] for tests. The core treats the backend as a
// single opaque blob slot; the session package decides what goes in it.
package storage
