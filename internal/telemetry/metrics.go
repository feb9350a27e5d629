package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/af-corp/textguard/internal/moderation"
)

// Metrics holds all Prometheus metrics for the textguard services.
type Metrics struct {
	ModerationTotal      *prometheus.CounterVec
	ModerationDurationMs *prometheus.HistogramVec
	FilterActionTotal    *prometheus.CounterVec
	RequestTotal         *prometheus.CounterVec
	AssistantTotal       *prometheus.CounterVec
	AssistantDurationMs  prometheus.Histogram
	RuleReloadTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ModerationTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "textguard_moderation_total",
			Help: "Moderation verdicts by source, outcome and category.",
		}, []string{"source", "outcome", "category"}),

		ModerationDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "textguard_moderation_duration_ms",
			Help:    "Time spent in the moderation engine in milliseconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),

		FilterActionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "textguard_filter_action_total",
			Help: "Total filter actions taken in the chat pipeline.",
		}, []string{"filter", "action"}),

		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "textguard_request_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),

		AssistantTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "textguard_assistant_total",
			Help: "Assistant completions by result.",
		}, []string{"result"}),

		AssistantDurationMs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "textguard_assistant_duration_ms",
			Help:    "Assistant completion latency in milliseconds, including retries.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),

		RuleReloadTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "textguard_rule_reload_total",
			Help: "Rule set rebuilds by trigger and result.",
		}, []string{"trigger", "result"}),
	}
}

// RecordModeration records one engine verdict.
func (m *Metrics) RecordModeration(source string, v moderation.Verdict, elapsed time.Duration) {
	outcome, category := "accepted", ""
	if !v.Accepted {
		outcome, category = "rejected", string(v.Category)
	}
	m.ModerationTotal.WithLabelValues(source, outcome, category).Inc()
	m.ModerationDurationMs.WithLabelValues(source).Observe(float64(elapsed.Microseconds()) / 1000)
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

// RecordRequest records a finished HTTP request.
func (m *Metrics) RecordRequest(route string, status int) {
	m.RequestTotal.WithLabelValues(route, statusLabel(status)).Inc()
}

// RecordAssistant records an assistant call outcome.
func (m *Metrics) RecordAssistant(result string, elapsed time.Duration) {
	m.AssistantTotal.WithLabelValues(result).Inc()
	m.AssistantDurationMs.Observe(float64(elapsed.Milliseconds()))
}

// RecordRuleReload records a rule set rebuild.
func (m *Metrics) RecordRuleReload(trigger string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RuleReloadTotal.WithLabelValues(trigger, result).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
