package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdraft_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdraft_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Draft metrics
	DraftMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdraft_mutations_total",
			Help: "Total draft mutations",
		},
		[]string{"op", "result"}, // result: "ok" or "error"
	)

	AnnotationsInvalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdraft_annotations_invalidated_total",
			Help: "Total annotations dropped by text edits",
		},
	)

	ActiveDrafts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatdraft_active_drafts",
			Help: "Draft sessions currently open",
		},
	)

	// Suggestion metrics
	SuggestionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdraft_suggestion_lookups_total",
			Help: "Total directory lookups for mention suggestions",
		},
		[]string{"kind", "result"}, // result: "hit", "miss" or "error"
	)

	SuggestionLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdraft_suggestion_lookup_duration_seconds",
			Help:    "Directory lookup latency",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"kind"},
	)

	// Publish metrics
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdraft_messages_published_total",
			Help: "Total messages published",
		},
		[]string{"storage"}, // "database", "cache" or "none"
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdraft_publish_failures_total",
			Help: "Total failed publishes",
		},
	)

	MirrorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdraft_telegram_mirror_failures_total",
			Help: "Total messages that could not be mirrored to Telegram",
		},
	)
)
