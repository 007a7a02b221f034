// Package metrics provides Prometheus metrics export for the AI provider
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports registry activity in Prometheus format. It implements
// ai.Recorder and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	chatRequests  *prometheus.CounterVec
	chatFallbacks *prometheus.CounterVec
	providerUp    *prometheus.GaugeVec
}

// Config configures the recorder.
type Config struct {
	// Registry to use; a fresh one is created when nil.
	Registry *prometheus.Registry
}

// NewRecorder creates a Prometheus recorder and registers its collectors.
func NewRecorder(cfg Config) *Recorder {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{registry: registry}

	r.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oto",
			Subsystem: "ai",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests routed through the registry",
		},
		[]string{"provider", "status"},
	)

	r.chatFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oto",
			Subsystem: "ai",
			Name:      "chat_fallbacks_total",
			Help:      "Chat requests retried against the default provider",
		},
		[]string{"provider"},
	)

	r.providerUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "oto",
			Subsystem: "ai",
			Name:      "provider_up",
			Help:      "Provider availability from the last health check (1 = available)",
		},
		[]string{"provider"},
	)

	registry.MustRegister(r.chatRequests, r.chatFallbacks, r.providerUp)
	return r
}

// RecordChat counts one routed chat call.
func (r *Recorder) RecordChat(providerID string, fallback bool, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.chatRequests.WithLabelValues(providerID, status).Inc()
	if fallback {
		r.chatFallbacks.WithLabelValues(providerID).Inc()
	}
}

// RecordHealth records the outcome of one availability probe.
func (r *Recorder) RecordHealth(providerID string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	r.providerUp.WithLabelValues(providerID).Set(v)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
