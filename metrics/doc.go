// Package metrics exposes Prometheus counters for upload admission
// outcomes, validation errors, client blocks, verification backend calls
// and quote archive writes, served by a standalone MetricsServer.
package metrics
