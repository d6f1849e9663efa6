// Package metrics provides the Prometheus registry used by the LeanKit client.
// All metrics are defined in their respective packages (leankit, ratelimit,
// pagination) and registered via promauto.
//
// The report runs as a short-lived process, so instead of serving /metrics it
// can dump the registry in the node-exporter textfile collector format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer WriteTextfile reads from.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes all gathered metrics to path atomically.
func WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics file path is empty")
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/leankit):
//   - leankit_requests_total{method, status} (Counter): requests by method and HTTP status
//   - leankit_request_duration_seconds{method} (Histogram): request duration
//   - leankit_errors_total{class} (Counter): failures by class (network, http, decode, reply)
//
// Pacing Metrics (pkg/ratelimit):
//   - leankit_pacer_waits_total (Counter): requests delayed by the pacer
//   - leankit_pacer_delay_seconds (Histogram): imposed delay
//
// Pagination Metrics (pkg/pagination):
//   - leankit_pages_fetched_total (Counter): search pages fetched
//   - leankit_items_collected (Gauge): items collected by the last collection
//
// Example Prometheus Queries:
//
//   # Share of time spent waiting on the pacer
//   rate(leankit_pacer_delay_seconds_sum[1h]) / rate(leankit_request_duration_seconds_sum[1h])
//
//   # Failure reply codes
//   increase(leankit_errors_total{class="reply"}[1d])
