// Package metrics provides centralized Prometheus metrics registry for the pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "runs_total",
		Help:      "Total pipeline runs by terminal status",
	}, []string{"status"})
	OverrideRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "override_rejections_total",
		Help:      "Total manual date overrides rejected",
	})
	MarketsSimulatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "markets_simulated_total",
		Help:      "Total markets simulated",
	})
	MarketsUnverifiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "markets_unverified_total",
		Help:      "Total markets left unsimulated for missing inputs",
	})
	PlayersExcludedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "players_excluded_total",
		Help:      "Total players removed by the eligibility filter",
	})
	SnapshotFetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "snapshot_fetch_errors_total",
		Help:      "Total failed snapshot fetches",
	})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_edge",
		Name:      "api_requests_total",
		Help:      "Total API requests by route and status code",
	}, []string{"route", "code"})
)

// Gauge metrics
var (
	PlaysSelected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quant_edge",
		Name:      "plays_selected",
		Help:      "Number of plays in the latest report",
	})
	TopEdge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quant_edge",
		Name:      "top_edge",
		Help:      "Largest edge in the latest report",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quant_edge",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the latest report was generated",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quant_edge",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of the simulation stage in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
	SnapshotFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quant_edge",
		Name:      "snapshot_fetch_duration_seconds",
		Help:      "Duration of snapshot fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RunsTotal)
		registry.MustRegister(OverrideRejectionsTotal)
		registry.MustRegister(MarketsSimulatedTotal)
		registry.MustRegister(MarketsUnverifiedTotal)
		registry.MustRegister(PlayersExcludedTotal)
		registry.MustRegister(SnapshotFetchErrorsTotal)
		registry.MustRegister(APIRequestsTotal)

		registry.MustRegister(PlaysSelected)
		registry.MustRegister(TopEdge)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(SimulationDuration)
		registry.MustRegister(SnapshotFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRun records a run's terminal status.
func RecordRun(status string) {
	RunsTotal.WithLabelValues(status).Inc()
}

// RecordOverrideRejected records a rejected manual date.
func RecordOverrideRejected() {
	OverrideRejectionsTotal.Inc()
}

// RecordSimulation records one simulation stage.
func RecordSimulation(simulated, unverified int, duration time.Duration) {
	MarketsSimulatedTotal.Add(float64(simulated))
	MarketsUnverifiedTotal.Add(float64(unverified))
	SimulationDuration.Observe(duration.Seconds())
}

// RecordPlayersExcluded records players removed by the eligibility filter.
func RecordPlayersExcluded(n int) {
	PlayersExcludedTotal.Add(float64(n))
}

// RecordReport updates the latest-report gauges.
func RecordReport(plays int, topEdge float64, generatedAt time.Time) {
	PlaysSelected.Set(float64(plays))
	TopEdge.Set(topEdge)
	LastRunTimestamp.Set(float64(generatedAt.Unix()))
}

// RecordSnapshotFetch records one snapshot fetch attempt.
func RecordSnapshotFetch(duration time.Duration, err error) {
	SnapshotFetchDuration.Observe(duration.Seconds())
	if err != nil {
		SnapshotFetchErrorsTotal.Inc()
	}
}

// RecordAPIRequest records an API response.
func RecordAPIRequest(route string, code int) {
	APIRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
