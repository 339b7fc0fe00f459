package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resqlink"

// Metrics holds the Prometheus collectors for the feed pipeline, the live
// updates poller and the event sink.
type Metrics struct {
	FeedFetches        *prometheus.CounterVec // labels: outcome={success,http_error,transport_error,parse_error,error}
	FeedFetchDuration  prometheus.Histogram
	FeedEvents         prometheus.Gauge
	FeedStaleResponses prometheus.Counter

	LivePolls   *prometheus.CounterVec // labels: outcome
	LiveUpdates prometheus.Gauge

	SinkPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates all collectors and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedFetches,
		m.FeedFetchDuration,
		m.FeedEvents,
		m.FeedStaleResponses,
		m.LivePolls,
		m.LiveUpdates,
		m.SinkPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "GDACS feed fetches by outcome.",
		}, []string{"outcome"}),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a GDACS fetch, including normalization and storage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FeedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_events",
			Help:      "Number of canonical events in the current snapshot.",
		}),
		FeedStaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_stale_responses_total",
			Help:      "Feed responses discarded because a newer request was issued.",
		}),
		LivePolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_poll_total",
			Help:      "Live updates polls by outcome.",
		}, []string{"outcome"}),
		LiveUpdates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_updates",
			Help:      "Number of entries in the current live updates list.",
		}),
		SinkPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_published_total",
			Help:      "New events handed to the event sink by outcome.",
		}, []string{"outcome"}),
	}
}
