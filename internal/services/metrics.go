package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for the mentor loop.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec
	ChatFallbacks      *prometheus.CounterVec
	ToolCalls          *prometheus.CounterVec
	ModelIterations    prometheus.Histogram
}

// NewMetrics registers the metrics with reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "mentor_chat_requests_total",
			Help: "Total number of chat turns processed",
		}),

		// up to 2 minutes for model round trips
		ChatRequestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mentor_chat_request_duration_seconds",
			Help:    "Chat turn latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		ChatErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentor_chat_errors_total",
			Help: "Total number of chat errors by type",
		}, []string{"error_type"}),

		ChatFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentor_chat_fallback_replies_total",
			Help: "Chat turns answered with the fallback reply, by reason",
		}, []string{"reason"}),

		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentor_tool_calls_total",
			Help: "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}), // outcome: "ok", "error" or "refused"

		ModelIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mentor_chat_model_iterations",
			Help:    "Model calls needed to finish a chat turn",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		}),
	}
}

// RecordChatRequest increments the chat request counter
func (m *Metrics) RecordChatRequest() {
	if m != nil {
		m.ChatRequests.Inc()
	}
}

// RecordChatLatency records how long a turn took
func (m *Metrics) RecordChatLatency(d time.Duration) {
	if m != nil {
		m.ChatRequestLatency.Observe(d.Seconds())
	}
}

// RecordChatError increments the error counter for the given type
func (m *Metrics) RecordChatError(errorType string) {
	if m != nil {
		m.ChatErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordFallback counts a turn that ended with the fallback reply
func (m *Metrics) RecordFallback(reason string) {
	if m != nil {
		m.ChatFallbacks.WithLabelValues(reason).Inc()
	}
}

// RecordToolCall counts a tool invocation
func (m *Metrics) RecordToolCall(tool, outcome string) {
	if m != nil {
		m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	}
}

// RecordIterations observes how many model calls a turn used
func (m *Metrics) RecordIterations(n int) {
	if m != nil {
		m.ModelIterations.Observe(float64(n))
	}
}
