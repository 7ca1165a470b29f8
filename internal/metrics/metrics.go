// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the database pool, and the domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "compass"

// Registry holds every metric this process exports.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, details in labels)",
	},
	[]string{"version", "commit"},
)

// RegistrationsTotal counts member registrations.
var RegistrationsTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of member registrations",
	},
)

// CheckinsTotal counts event check-ins by outcome.
var CheckinsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkins_total",
		Help:      "Total number of event check-in attempts",
	},
	[]string{"outcome"},
)

// SessionsCleaned counts expired sessions removed by the cleanup job.
var SessionsCleaned = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_cleaned_total",
		Help:      "Total number of expired sessions deleted by the cleanup loop",
	},
)

// Init registers the runtime collectors and stamps the build info.
func Init(version, commit string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit).Set(1)
}
