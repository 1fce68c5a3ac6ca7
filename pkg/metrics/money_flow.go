package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MoneyFlowMetrics tracks settlement and cashout outcomes. All methods are
// nil-safe so components can run without a registry wired in.
type MoneyFlowMetrics struct {
	settlements *prometheus.CounterVec
	cashouts    *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewMoneyFlowMetrics registers the counters on the provided registerer.
func NewMoneyFlowMetrics(reg prometheus.Registerer) *MoneyFlowMetrics {
	if reg == nil {
		return &MoneyFlowMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Payment settlements by outcome.",
	}, []string{"outcome"})
	cashouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashouts_total",
		Help: "Cashout requests by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Inbound payment webhook events by result.",
	}, []string{"result"})
	reg.MustRegister(settlements, cashouts, webhooks)
	return &MoneyFlowMetrics{
		settlements: settlements,
		cashouts:    cashouts,
		webhooks:    webhooks,
	}
}

// IncSettlement counts one settlement attempt with the given outcome.
func (m *MoneyFlowMetrics) IncSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCashout counts one cashout request with the given outcome.
func (m *MoneyFlowMetrics) IncCashout(outcome string) {
	if m == nil || m.cashouts == nil {
		return
	}
	m.cashouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook counts one inbound webhook with the given result.
func (m *MoneyFlowMetrics) IncWebhook(result string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
