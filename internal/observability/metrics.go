package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the throttling engine. All
// recording methods are nil-safe so the engine can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	messagesSentTotal     prometheus.Counter
	dispatchFailuresTotal *prometheus.CounterVec
	messagesRejectedTotal *prometheus.CounterVec
	pendingMessages       prometheus.Gauge
	dispatchDuration      prometheus.Histogram
	quotaResetsTotal      prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		messagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sendgate",
				Name:      "messages_sent_total",
				Help:      "Total number of messages dispatched successfully.",
			},
		),
		dispatchFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sendgate",
				Name:      "dispatch_failures_total",
				Help:      "Total number of dispatch attempts that failed at the transport.",
			},
			[]string{"reason"},
		),
		messagesRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sendgate",
				Name:      "messages_rejected_total",
				Help:      "Total number of messages rejected at admission by violation kind.",
			},
			[]string{"kind"},
		),
		pendingMessages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sendgate",
				Name:      "pending_messages",
				Help:      "Current number of messages waiting in the pending queue.",
			},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sendgate",
				Name:      "dispatch_duration_seconds",
				Help:      "Transport dispatch duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		quotaResetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sendgate",
				Name:      "quota_resets_total",
				Help:      "Total number of quota window resets.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesSentTotal,
		m.dispatchFailuresTotal,
		m.messagesRejectedTotal,
		m.pendingMessages,
		m.dispatchDuration,
		m.quotaResetsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncMessageSent() {
	if m == nil {
		return
	}
	m.messagesSentTotal.Inc()
}

func (m *Metrics) IncDispatchFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.dispatchFailuresTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncMessageRejected(kind string) {
	if m == nil {
		return
	}
	kindLabel := strings.TrimSpace(strings.ToLower(kind))
	if kindLabel == "" {
		kindLabel = "unknown"
	}
	m.messagesRejectedTotal.WithLabelValues(kindLabel).Inc()
}

func (m *Metrics) SetPendingMessages(n int) {
	if m == nil {
		return
	}
	m.pendingMessages.Set(float64(n))
}

func (m *Metrics) ObserveDispatchDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.dispatchDuration.Observe(seconds)
}

func (m *Metrics) IncQuotaReset() {
	if m == nil {
		return
	}
	m.quotaResetsTotal.Inc()
}
