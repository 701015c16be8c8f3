package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors, kept apart from the
	// default registry so tests can scrape it in isolation.
	Registry = prometheus.NewRegistry()

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "churchly",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "churchly",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	PrayerRequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "prayer_wall",
			Name:      "requests_created_total",
			Help:      "Prayer requests posted to the wall.",
		},
	)

	PrayerResponsesAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "prayer_wall",
			Name:      "responses_added_total",
			Help:      "Responses added to prayer requests.",
		},
	)

	TestimoniesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "testimonies",
			Name:      "created_total",
			Help:      "Testimonies posted.",
		},
	)

	PushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "push",
			Name:      "sends_total",
			Help:      "Push notification deliveries by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	ScheduledJobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "churchly",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by job and outcome.",
		},
		[]string{"job", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		HTTPInFlight,
		HTTPRequests,
		HTTPDuration,
		PrayerRequestsCreated,
		PrayerResponsesAdded,
		TestimoniesCreated,
		PushSends,
		ScheduledJobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
