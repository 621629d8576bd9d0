// Package prometheus exposes goSession metrics through client_golang.
//
// [NewCollector] wraps a [goSession.Manager] (or any metrics source) in a
// prometheus.Collector that reads [goSession.Manager.MetricsSnapshot] on every
// scrape. Counter names are prefixed gosession_*_total; the single histogram is
// gosession_operation_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. [Collector.Handler] uses a
//     private registry and callers may register the collector elsewhere.
//   - Mutate manager state.
package prometheus
