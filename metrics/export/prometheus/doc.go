// Package prometheus provides Prometheus collectors for authkit metrics.
//
// [NewPrometheusExporter] accepts an [authkit.Client] and exposes an [http.Handler]
// that renders all authkit counters and histograms in Prometheus text exposition format.
// Counter names are prefixed authkit_*_total; the single histogram is
// authkit_gateway_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate client state.
package prometheus
