package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrscan_decode_requests_total",
			Help: "Total number of decode requests",
		},
		[]string{"status"}, // status: ok, not_found, error
	)

	decodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrscan_decode_duration_seconds",
			Help:    "Decode pipeline duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	symbolsPerImage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrscan_symbols_per_image",
			Help:    "Number of QR symbols found per decoded image",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	errorsCorrectedTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrscan_errors_corrected",
			Help:    "Reed-Solomon codewords corrected per decode",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40},
		},
	)

	dedupedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrscan_deduped_requests_total",
			Help: "Requests served from an in-flight duplicate decode via singleflight",
		},
	)
)
