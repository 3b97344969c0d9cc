// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionEvents counts provider session events by kind (signed_in, signed_out).
	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authtest_session_events_total",
			Help: "Identity provider session events observed, by kind.",
		},
		[]string{"kind"},
	)

	// ProviderOperations counts identity provider calls by operation and result.
	ProviderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authtest_provider_operations_total",
			Help: "Identity provider operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	// MeRequests counts backend "me" requests by result.
	MeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authtest_me_requests_total",
			Help: "Backend me requests, by result.",
		},
		[]string{"result"},
	)

	// MountedApps tracks the number of mounted application instances.
	MountedApps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authtest_mounted_apps",
		Help: "Application instances currently mounted.",
	})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
