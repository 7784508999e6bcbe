// Package metrics provides Prometheus metrics for the lineup service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for balance runs.
const (
	OutcomeMatched = "matched"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	registry       prometheus.Registerer

	// Balancing
	balanceRuns         *prometheus.CounterVec
	balanceDuration     prometheus.Histogram
	relaxationCycles    prometheus.Histogram
	candidateCount      prometheus.Histogram
	anchorsSampled      prometheus.Histogram
	matchGap            prometheus.Histogram
	participantsNoVotes prometheus.Counter

	// Score cache
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheEntries prometheus.Gauge

	// Vote source
	voteFetchLatency prometheus.Histogram
	voteFetchErrors  prometheus.Counter

	// Vote ingestion
	votesRecorded      prometheus.Counter
	votesDuplicate     prometheus.Counter
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter
	workerLatency      prometheus.Histogram
	eventsPublished    *prometheus.CounterVec
	eventPublishErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager.Store(NewManager(WithPrometheusRegistry(customRegistry)))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "lineup",
		subsystem:      "balancer",
		latencyBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Use swaps the manager behind the package-level recorders.
func Use(m *Manager) error {
	if m == nil {
		return ErrNotRegistered
	}
	globalManager.Store(m)
	return nil
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.balanceRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_runs_total",
		Help:      "Balance runs by outcome (matched, no_match, error)",
	}, []string{"outcome"})

	m.balanceDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "balance_duration_milliseconds",
		Help:      "Wall time of a balance run in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.relaxationCycles = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "relaxation_cycles",
		Help:      "Tolerance relaxation cycles used per balance run",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20, 40},
	})

	m.candidateCount = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_rosters",
		Help:      "Candidate rosters enumerated per balance run",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.anchorsSampled = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anchors_sampled",
		Help:      "Anchor rosters sampled per balance run",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.matchGap = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_score_gap",
		Help:      "Aggregate score gap of matched teams",
		Buckets:   []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
	})

	m.participantsNoVotes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_without_votes_total",
		Help:      "Score computations that fell back to the default rating",
	})

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Score cache hits by operation",
	}, []string{"op"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Score cache misses by operation",
	}, []string{"op"})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Live entries in the score cache",
	})

	m.voteFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "fetch_latency_milliseconds",
		Help:      "Latency of rating sample fetches from the vote store",
		Buckets:   m.latencyBuckets,
	})

	m.voteFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "fetch_errors_total",
		Help:      "Failed rating sample fetches",
	})

	m.votesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "recorded_total",
		Help:      "Votes persisted by the ingestion workers",
	})

	m.votesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "duplicate_total",
		Help:      "Votes rejected as duplicates by vote id",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "queue_size",
		Help:      "Votes waiting in the ingestion queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "queue_capacity",
		Help:      "Capacity of the ingestion queue",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "queue_enqueue_errors_total",
		Help:      "Votes refused by the ingestion queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "worker_count",
		Help:      "Ingestion workers running",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "worker_errors_total",
		Help:      "Votes the ingestion workers failed to persist",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "votes",
		Name:      "worker_latency_milliseconds",
		Help:      "Time to persist one vote",
		Buckets:   m.latencyBuckets,
	})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Events published by subject",
	}, []string{"subject"})

	m.eventPublishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Events that failed to publish",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Number of goroutines",
	})
}

func active() *Manager {
	m := globalManager.Load()
	if m == nil || !m.enabled {
		return nil
	}
	return m
}

// RecordBalanceRun counts one balance run and observes its duration.
func RecordBalanceRun(outcome string, durationMs float64) {
	if m := active(); m != nil {
		m.balanceRuns.WithLabelValues(outcome).Inc()
		m.balanceDuration.Observe(durationMs)
	}
}

// RecordSearch observes the shape of one match search.
func RecordSearch(candidates, anchors, cycles int) {
	if m := active(); m != nil {
		m.candidateCount.Observe(float64(candidates))
		m.anchorsSampled.Observe(float64(anchors))
		m.relaxationCycles.Observe(float64(cycles))
	}
}

// RecordMatchGap observes the score gap of a matched pair.
func RecordMatchGap(gap float64) {
	if m := active(); m != nil {
		m.matchGap.Observe(gap)
	}
}

// RecordParticipantWithoutVotes counts a fallback to the default rating.
func RecordParticipantWithoutVotes() {
	if m := active(); m != nil {
		m.participantsNoVotes.Inc()
	}
}

// RecordCacheHit counts a score cache hit for op.
func RecordCacheHit(op string) {
	if m := active(); m != nil {
		m.cacheHits.WithLabelValues(op).Inc()
	}
}

// RecordCacheMiss counts a score cache miss for op.
func RecordCacheMiss(op string) {
	if m := active(); m != nil {
		m.cacheMisses.WithLabelValues(op).Inc()
	}
}

// UpdateCacheEntries sets the live score cache size.
func UpdateCacheEntries(n int) {
	if m := active(); m != nil {
		m.cacheEntries.Set(float64(n))
	}
}

// RecordVoteFetch observes one rating sample fetch.
func RecordVoteFetch(latencyMs float64, err error) {
	if m := active(); m != nil {
		m.voteFetchLatency.Observe(latencyMs)
		if err != nil {
			m.voteFetchErrors.Inc()
		}
	}
}

// RecordVoteRecorded counts a persisted vote.
func RecordVoteRecorded() {
	if m := active(); m != nil {
		m.votesRecorded.Inc()
	}
}

// RecordVoteDuplicate counts a vote rejected by id.
func RecordVoteDuplicate() {
	if m := active(); m != nil {
		m.votesDuplicate.Inc()
	}
}

// UpdateQueueSize sets the ingestion queue length.
func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the ingestion queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError() {
	if m := active(); m != nil {
		m.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount sets the number of ingestion workers.
func UpdateWorkerCount(count int) {
	if m := active(); m != nil {
		m.workerCount.Set(float64(count))
	}
}

// RecordWorkerVote observes one processed vote.
func RecordWorkerVote(latencyMs float64, err error) {
	if m := active(); m != nil {
		m.workerLatency.Observe(latencyMs)
		if err != nil {
			m.workerErrors.Inc()
		}
	}
}

// RecordEventPublished counts a published event.
func RecordEventPublished(subject string, err error) {
	if m := active(); m != nil {
		if err != nil {
			m.eventPublishErrors.Inc()
			return
		}
		m.eventsPublished.WithLabelValues(subject).Inc()
	}
}

// RecordHTTPRequest records one HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
