// Package metrics provides Prometheus metrics for the footelo rating pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ratingChangeBuckets covers |k*(actual-expected)| for the usual k range.
var ratingChangeBuckets = []float64{0.5, 1, 2, 4, 8, 12, 16, 24, 32, 48, 64} //nolint:gochecknoglobals // constant bucket layout

// Manager manages all Prometheus metrics for the rating pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Rating engine
	matchesProcessed *prometheus.CounterVec
	matchesDropped   *prometheus.CounterVec
	ratingChange     *prometheus.HistogramVec
	teamsRated       *prometheus.GaugeVec
	seasonLatency    *prometheus.HistogramVec

	// Continuity
	seasonsProcessed   prometheus.Counter
	transfers          *prometheus.CounterVec
	transfersSkipped   *prometheus.CounterVec
	movementMismatches *prometheus.CounterVec
	newTeamWarnings    *prometheus.CounterVec
	orchestratorState  prometheus.Gauge
	pipelineRuns       *prometheus.CounterVec

	// Leaderboard
	leaderboardTeams *prometheus.GaugeVec

	// Jobs
	queueSize     prometheus.Gauge
	queueRejected prometheus.Counter
	jobsProcessed *prometheus.CounterVec
	jobLatency    prometheus.Histogram
	workersActive prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "footelo",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.matchesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_processed_total"),
		Help:        "Total number of matches run through the rating updater",
		ConstLabels: labels,
	}, []string{"division"})

	m.matchesDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_dropped_total"),
		Help:        "Total number of match rows excluded from rating, by reason",
		ConstLabels: labels,
	}, []string{"division", "reason"})

	m.ratingChange = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rating_change_points"),
		Help:        "Absolute rating change applied per match",
		Buckets:     ratingChangeBuckets,
		ConstLabels: labels,
	}, []string{"division"})

	m.teamsRated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("teams_rated"),
		Help:        "Teams holding a rating at the end of the last processed season",
		ConstLabels: labels,
	}, []string{"division"})

	m.seasonLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("season_processing_milliseconds"),
		Help:        "Time spent rating one season of one division",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"division"})

	m.seasonsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("seasons_processed_total"),
		Help:        "Total number of seasons completed by the orchestrator",
		ConstLabels: labels,
	})

	m.transfers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transfers_total"),
		Help:        "Ratings transferred between tiers at season boundaries",
		ConstLabels: labels,
	}, []string{"tier", "mode"})

	m.transfersSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("transfers_skipped_total"),
		Help:        "Season boundaries where the cross-tier transfer was skipped",
		ConstLabels: labels,
	}, []string{"reason"})

	m.movementMismatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("movement_mismatches_total"),
		Help:        "Transitions where promoted and relegated counts differ",
		ConstLabels: labels,
	}, []string{"tier"})

	m.newTeamWarnings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unseeded_teams_total"),
		Help:        "Teams that started a seeded season without a carried rating",
		ConstLabels: labels,
	}, []string{"division"})

	m.orchestratorState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("orchestrator_state"),
		Help:        "Current orchestrator state (0 awaiting, 1 processing, 2 transferring, 3 decaying, 4 done)",
		ConstLabels: labels,
	})

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("pipeline_runs_total"),
		Help:        "Pipeline runs by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.leaderboardTeams = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("leaderboard_teams"),
		Help:        "Teams published to the leaderboard per division",
		ConstLabels: labels,
	}, []string{"division"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("job_queue_size"),
		Help:        "Jobs waiting in the rating job queue",
		ConstLabels: labels,
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("job_queue_rejected_total"),
		Help:        "Jobs refused because the queue was full or closed",
		ConstLabels: labels,
	})

	m.jobsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("jobs_processed_total"),
		Help:        "Rating jobs run by workers, by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.jobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("job_latency_milliseconds"),
		Help:        "Time a worker spent on one rating job",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.workersActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("workers_active"),
		Help:        "Workers currently running",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool { return m.enabled }

// Rating engine functions.

// RecordMatchProcessed counts one rated match and the rating change it produced.
func RecordMatchProcessed(division string, change float64) {
	if !globalManager.enabled {
		return
	}
	if change < 0 {
		change = -change
	}
	globalManager.matchesProcessed.WithLabelValues(division).Inc()
	globalManager.ratingChange.WithLabelValues(division).Observe(change)
}

// RecordMatchDropped counts a match row excluded from rating.
func RecordMatchDropped(division, reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesDropped.WithLabelValues(division, reason).Inc()
}

// RecordSeasonLatency records how long a division season took to rate.
func RecordSeasonLatency(division string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.seasonLatency.WithLabelValues(division).Observe(latencyMs)
}

// UpdateTeamsRated sets the number of teams rated in a division.
func UpdateTeamsRated(division string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.teamsRated.WithLabelValues(division).Set(float64(count))
}

// Continuity functions.

// RecordSeasonProcessed increments the completed seasons counter.
func RecordSeasonProcessed() {
	if !globalManager.enabled {
		return
	}
	globalManager.seasonsProcessed.Inc()
}

// RecordTransfers adds n transferred ratings for a tier. mode is "merit" or "blind".
func RecordTransfers(tier, mode string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.transfers.WithLabelValues(tier, mode).Add(float64(n))
}

// RecordTransferSkipped counts a boundary where no transfer happened.
func RecordTransferSkipped(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transfersSkipped.WithLabelValues(reason).Inc()
}

// RecordMovementMismatch counts a tier whose promoted and relegated sets differ in size.
func RecordMovementMismatch(tier string) {
	if !globalManager.enabled {
		return
	}
	globalManager.movementMismatches.WithLabelValues(tier).Inc()
}

// RecordUnseededTeams adds n teams that entered a seeded season without a rating.
func RecordUnseededTeams(division string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.newTeamWarnings.WithLabelValues(division).Add(float64(n))
}

// UpdateOrchestratorState publishes the orchestrator state ordinal.
func UpdateOrchestratorState(state int) {
	if !globalManager.enabled {
		return
	}
	globalManager.orchestratorState.Set(float64(state))
}

// RecordPipelineRun counts a pipeline run with its outcome ("ok" or "error").
func RecordPipelineRun(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.pipelineRuns.WithLabelValues(outcome).Inc()
}

// UpdateLeaderboardTeams sets the number of published teams in a division.
func UpdateLeaderboardTeams(division string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.leaderboardTeams.WithLabelValues(division).Set(float64(count))
}

// Job functions.

// UpdateQueueSize sets the number of queued jobs.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueRejected counts a job the queue refused.
func RecordQueueRejected() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueRejected.Inc()
}

// RecordJobProcessed counts a finished job ("ok" or "error") and its latency.
func RecordJobProcessed(outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsProcessed.WithLabelValues(outcome).Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// AddWorkersActive adjusts the running worker gauge by delta.
func AddWorkersActive(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workersActive.Add(float64(delta))
}

// HTTP functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
