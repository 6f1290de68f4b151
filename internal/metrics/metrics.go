package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rewards",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	awards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "ledger",
			Name:      "awards_total",
			Help:      "Ledger transactions written, by transaction type.",
		},
		[]string{"type"},
	)

	awardedPoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "ledger",
			Name:      "points_total",
			Help:      "Absolute points moved through the ledger, by transaction type.",
		},
		[]string{"type"},
	)

	ruleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "rules",
			Name:      "rejections_total",
			Help:      "Requests refused by an earning or withdrawal rule.",
		},
		[]string{"rule", "reason"},
	)

	withdrawalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "withdrawals",
			Name:      "transitions_total",
			Help:      "Withdrawal status changes.",
		},
		[]string{"status"},
	)

	contestsDistributed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "contests",
			Name:      "distributed_total",
			Help:      "Contests whose rewards were paid out.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "notifications",
			Name:      "events_total",
			Help:      "Notification events by outcome.",
		},
		[]string{"outcome"},
	)

	settingsVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rewards",
			Subsystem: "settings",
			Name:      "version",
			Help:      "Version of the settings snapshot in use.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		awards,
		awardedPoints,
		ruleRejections,
		withdrawalTransitions,
		contestsDistributed,
		notifications,
		settingsVersion,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTP records one handled request. route is the matched route pattern, not the raw path.
func RecordHTTP(method, route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordAward(txType string, points int64) {
	if points < 0 {
		points = -points
	}
	awards.WithLabelValues(txType).Inc()
	awardedPoints.WithLabelValues(txType).Add(float64(points))
}

func RecordRejection(rule, reason string) {
	ruleRejections.WithLabelValues(rule, reason).Inc()
}

func RecordWithdrawalTransition(status string) {
	withdrawalTransitions.WithLabelValues(status).Inc()
}

func RecordContestDistributed() {
	contestsDistributed.Inc()
}

// RecordNotification counts a notification event: queued, dropped, delivered or failed.
func RecordNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

func SetSettingsVersion(v int64) {
	settingsVersion.Set(float64(v))
}
