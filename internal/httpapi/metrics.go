package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the bot: pipeline counters,
// translation and speech outcomes, and HTTP serving stats.
type Metrics struct {
	registry        *prometheus.Registry
	messagesTotal   *prometheus.CounterVec
	dropsTotal      *prometheus.CounterVec
	reactionsTotal  *prometheus.CounterVec
	translations    *prometheus.CounterVec
	speechTasks     *prometheus.CounterVec
	speechQueue     prometheus.GaugeFunc
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	feedClients     prometheus.Gauge
	feedDrops       prometheus.Counter
}

func newMetrics(queueDepth func() float64) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "messages_total",
			Help:      "Chat messages received per platform",
		}, []string{"platform"}),
		dropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "messages_dropped_total",
			Help:      "Chat messages dropped before reactions, by reason",
		}, []string{"platform", "reason"}),
		reactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "reactions_total",
			Help:      "Reactions built, by kind",
		}, []string{"kind"}),
		translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "translations_total",
			Help:      "Translation backend calls, by engine and outcome",
		}, []string{"engine", "outcome"}),
		speechTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "speech_tasks_total",
			Help:      "Speech tasks processed, by outcome",
		}, []string{"outcome"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests received",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "babel",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "http_rate_limited_total",
			Help:      "HTTP requests rejected by the per-client limiter",
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "babel",
			Name:      "feed_clients",
			Help:      "Currently connected reaction feed clients",
		}),
		feedDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "babel",
			Name:      "feed_drops_total",
			Help:      "Feed events dropped because a client was too slow",
		}),
	}

	registry.MustRegister(
		m.messagesTotal,
		m.dropsTotal,
		m.reactionsTotal,
		m.translations,
		m.speechTasks,
		m.requestsTotal,
		m.requestDuration,
		m.rateLimited,
		m.feedClients,
		m.feedDrops,
	)

	if queueDepth != nil {
		m.speechQueue = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "babel",
			Name:      "speech_queue_depth",
			Help:      "Speech tasks waiting for the worker",
		}, queueDepth)
		registry.MustRegister(m.speechQueue)
	}

	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMessage counts one inbound chat message.
func (m *Metrics) ObserveMessage(platform string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(platform).Inc()
}

// ObserveDrop counts one dropped message.
func (m *Metrics) ObserveDrop(platform, reason string) {
	if m == nil {
		return
	}
	m.dropsTotal.WithLabelValues(platform, reason).Inc()
}

// ObserveReaction counts one built reaction.
func (m *Metrics) ObserveReaction(kind string) {
	if m == nil {
		return
	}
	m.reactionsTotal.WithLabelValues(kind).Inc()
}

// ObserveTranslation counts one translation backend call.
func (m *Metrics) ObserveTranslation(engine, outcome string) {
	if m == nil {
		return
	}
	m.translations.WithLabelValues(engine, outcome).Inc()
}

// ObserveSpeechTask counts one processed speech task.
func (m *Metrics) ObserveSpeechTask(outcome string) {
	if m == nil {
		return
	}
	m.speechTasks.WithLabelValues(outcome).Inc()
}

// ObserveRequest records timing and status information.
func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

// IncRateLimited increments the rate limit counter.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// IncFeedClients adjusts the feed client gauge by delta.
func (m *Metrics) IncFeedClients(delta float64) {
	if m == nil {
		return
	}
	m.feedClients.Add(delta)
}

// IncFeedDrops increments the slow-client drop counter.
func (m *Metrics) IncFeedDrops() {
	if m == nil {
		return
	}
	m.feedDrops.Inc()
}
