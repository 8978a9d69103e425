package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the message pipeline.
type ConversationMetrics struct {
	turnsTotal     *prometheus.CounterVec
	policyTotal    *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	llmLatency     prometheus.Histogram
	namesExtracted prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed inbound message turns",
		}, []string{"status"}),
		policyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "conversation",
			Name:      "policy_branch_total",
			Help:      "Replies by response policy branch",
		}, []string{"branch"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atendeai",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of full message turns",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atendeai",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completion calls",
			Buckets:   prometheus.DefBuckets,
		}),
		namesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atendeai",
			Subsystem: "conversation",
			Name:      "caller_names_extracted_total",
			Help:      "Caller names extracted from inbound messages",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.policyTotal, m.turnLatency, m.llmLatency, m.namesExtracted)
	return m
}

func (m *ConversationMetrics) ObserveTurn(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *ConversationMetrics) ObservePolicyBranch(branch string) {
	if m == nil {
		return
	}
	m.policyTotal.WithLabelValues(branch).Inc()
}

func (m *ConversationMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveNameExtracted() {
	if m == nil {
		return
	}
	m.namesExtracted.Inc()
}
