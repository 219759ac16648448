package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediastream",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediastream",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "route"})

	FileBytesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mediastream",
		Name:      "file_bytes_served_total",
		Help:      "Total media bytes streamed via the file endpoint.",
	})

	NotReadyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediastream",
		Name:      "not_ready_responses_total",
		Help:      "Total not-ready style responses by reason.",
	}, []string{"reason"})

	ActiveStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mediastream",
		Name:      "active_streams",
		Help:      "Streams currently tracked in the session registry.",
	})

	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediastream",
		Name:      "provider_requests_total",
		Help:      "Total requests to search providers by provider name and result status.",
	}, []string{"provider", "status"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediastream",
		Name:      "provider_request_duration_seconds",
		Help:      "Search provider request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"provider"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FileBytesServed,
		NotReadyTotal,
		ActiveStreams,
		ProviderRequestsTotal,
		ProviderRequestDuration,
	)
}
