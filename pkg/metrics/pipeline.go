package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records the monitor and checkout stages of a purchase run.
type PipelineMetrics struct {
	polls          *prometheus.CounterVec
	fetchFailures  *prometheus.CounterVec
	eventsSeen     *prometheus.CounterVec
	liveDetections *prometheus.CounterVec
	checkouts      *prometheus.CounterVec
	checkoutTime   *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_polls_total",
		Help: "Snapshot polls executed by the drop monitor.",
	}, []string{"vendor"})
	fetchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_fetch_failures_total",
		Help: "Snapshot fetches that failed and were absorbed.",
	}, []string{"vendor"})
	eventsSeen := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_events_seen_total",
		Help: "Distinct drop events added to the seen-set.",
	}, []string{"vendor"})
	liveDetections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_live_detections_total",
		Help: "Drop events detected as live.",
	}, []string{"vendor"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	checkoutTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(polls, fetchFailures, eventsSeen, liveDetections, checkouts, checkoutTime)
	return &PipelineMetrics{
		polls:          polls,
		fetchFailures:  fetchFailures,
		eventsSeen:     eventsSeen,
		liveDetections: liveDetections,
		checkouts:      checkouts,
		checkoutTime:   checkoutTime,
	}
}

// IncPoll counts one monitor poll cycle for the vendor.
func (m *PipelineMetrics) IncPoll(vendor string) {
	if m == nil || m.polls == nil {
		return
	}
	m.polls.WithLabelValues(normalizeLabel(vendor)).Inc()
}

// IncFetchFailure counts one absorbed snapshot fetch failure.
func (m *PipelineMetrics) IncFetchFailure(vendor string) {
	if m == nil || m.fetchFailures == nil {
		return
	}
	m.fetchFailures.WithLabelValues(normalizeLabel(vendor)).Inc()
}

// IncEventSeen counts one event id added to the seen-set.
func (m *PipelineMetrics) IncEventSeen(vendor string) {
	if m == nil || m.eventsSeen == nil {
		return
	}
	m.eventsSeen.WithLabelValues(normalizeLabel(vendor)).Inc()
}

// IncLiveDetection counts one live drop detection.
func (m *PipelineMetrics) IncLiveDetection(vendor string) {
	if m == nil || m.liveDetections == nil {
		return
	}
	m.liveDetections.WithLabelValues(normalizeLabel(vendor)).Inc()
}

// ObserveCheckout records one checkout attempt and its duration.
func (m *PipelineMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkouts.WithLabelValues(label).Inc()
	m.checkoutTime.WithLabelValues(label).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
