// Package prometheus exposes goAccount engine metrics through a
// client_golang Collector.
//
// [NewCollector] reads [goAccount.Engine.MetricsSnapshot] on every scrape and
// emits const metrics, so nothing is double counted. Counters are named
// goaccount_*_total; the single histogram is goaccount_hash_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with the global default registry. Callers pass a Registerer.
//   - Mutate engine state.
package prometheus
