// Package otel exposes the session core's internal counters as
// OpenTelemetry instruments.
//
// [NewExporter] registers one Int64ObservableCounter per authcore metric
// plus the audit-drop counter. A single callback reads
// Manager.MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate session state.
package otel
