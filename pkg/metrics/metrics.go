// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns the metric vectors and the registry they are registered in.
type Manager struct {
	registry *prometheus.Registry

	skillsRegistered     prometheus.Counter
	skillsDuplicate      prometheus.Counter
	usageEventsRecorded  prometheus.Counter
	usageEventsRejected  prometheus.Counter
	distributionsRun     prometheus.Counter
	distributionsReplay  prometheus.Counter
	payoutSkillsSkipped  prometheus.Counter
	bountyTransitions    *prometheus.CounterVec
	trackedSkills        prometheus.Gauge
	trackedEvents        prometheus.Gauge
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	storeWriteDuration   prometheus.Histogram
	errorsByComponent    *prometheus.CounterVec
	distributionDuration prometheus.Histogram
}

// NewManager builds a Manager with all vectors registered in a fresh registry.
func NewManager() *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}

	m.skillsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_skills_registered_total",
		Help: "Number of new skill descriptors created.",
	})
	m.skillsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_skills_duplicate_total",
		Help: "Number of idempotent re-registrations returning an existing descriptor.",
	})
	m.usageEventsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_usage_events_recorded_total",
		Help: "Number of usage events appended to the log.",
	})
	m.usageEventsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_usage_events_rejected_total",
		Help: "Number of usage events rejected by the referential check.",
	})
	m.distributionsRun = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_distributions_computed_total",
		Help: "Number of distribution records computed and persisted.",
	})
	m.distributionsReplay = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_distributions_replayed_total",
		Help: "Number of distribute calls answered from an existing record.",
	})
	m.payoutSkillsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skillhub_payout_skills_skipped_total",
		Help: "Usage groups discarded because the skill descriptor was missing.",
	})
	m.bountyTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillhub_bounty_transitions_total",
		Help: "Bounty state transitions by target status.",
	}, []string{"status"})
	m.trackedSkills = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skillhub_skills_tracked",
		Help: "Current number of registered skills.",
	})
	m.trackedEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skillhub_usage_events_tracked",
		Help: "Current length of the usage event log.",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillhub_http_requests_total",
		Help: "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillhub_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method"})
	m.storeWriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skillhub_store_write_duration_ms",
		Help:    "Collection write duration in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})
	m.errorsByComponent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skillhub_errors_total",
		Help: "Errors by component and kind.",
	}, []string{"component", "kind"})
	m.distributionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skillhub_distribution_duration_ms",
		Help:    "Distribution computation duration in milliseconds.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.registry.MustRegister(
		m.skillsRegistered, m.skillsDuplicate,
		m.usageEventsRecorded, m.usageEventsRejected,
		m.distributionsRun, m.distributionsReplay, m.payoutSkillsSkipped,
		m.bountyTransitions, m.trackedSkills, m.trackedEvents,
		m.httpRequests, m.httpRequestDuration,
		m.storeWriteDuration, m.errorsByComponent, m.distributionDuration,
	)
	return m
}

var defaultManager = NewManager()

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry { return defaultManager.registry }

// Package-level recording helpers used throughout the service.

func RecordSkillRegistered()  { defaultManager.skillsRegistered.Inc() }
func RecordSkillDuplicate()   { defaultManager.skillsDuplicate.Inc() }
func RecordUsageEvent()       { defaultManager.usageEventsRecorded.Inc() }
func RecordUsageRejected()    { defaultManager.usageEventsRejected.Inc() }
func RecordDistributionRun()  { defaultManager.distributionsRun.Inc() }
func RecordDistributionHit()  { defaultManager.distributionsReplay.Inc() }
func RecordSkillSkipped()     { defaultManager.payoutSkillsSkipped.Inc() }

func RecordBountyTransition(status string) {
	defaultManager.bountyTransitions.WithLabelValues(status).Inc()
}

func UpdateTrackedSkills(n int) { defaultManager.trackedSkills.Set(float64(n)) }
func UpdateTrackedEvents(n int) { defaultManager.trackedEvents.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	defaultManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	defaultManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

func RecordStoreWriteDuration(durationMs float64) {
	defaultManager.storeWriteDuration.Observe(durationMs)
}

func RecordDistributionDuration(durationMs float64) {
	defaultManager.distributionDuration.Observe(durationMs)
}

func RecordErrorByComponent(component, kind string) {
	defaultManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}
