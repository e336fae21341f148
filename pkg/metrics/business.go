package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var postbackTotal = &Metric{
	ID:          "postbackTotal",
	Name:        "postback_total",
	Description: "Postbacks processed, partitioned by outcome.",
	Type:        TypeCounterVec,
	Args:        []string{"outcome"},
}

var postbackIngestDur = &Metric{
	ID:          "postbackIngestDur",
	Name:        "postback_ingest_dur_ms",
	Description: "Postback ingestion latency in milliseconds.",
	Type:        TypeHistogramVec,
	Args:        []string{"outcome"},
	Buckets:     IngestBuckets,
}

var paymentTransitionTotal = &Metric{
	ID:          "paymentTransitionTotal",
	Name:        "payment_transition_total",
	Description: "Payment state transitions attempted, partitioned by from/to state and result.",
	Type:        TypeCounterVec,
	Args:        []string{"from", "to", "result"},
}

var refundReconcileTotal = &Metric{
	ID:          "refundReconcileTotal",
	Name:        "refund_reconcile_total",
	Description: "Local refunds visited during reconciliation, partitioned by result.",
	Type:        TypeCounterVec,
	Args:        []string{"result"},
}

var productDecisionTotal = &Metric{
	ID:          "productDecisionTotal",
	Name:        "postback_product_decision_total",
	Description: "Postbacks carrying a gateway status no platform state represents.",
	Type:        TypeCounterVec,
	Args:        []string{"status"},
}

// BusinessMetrics groups the postback pipeline counters. A nil
// *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	postbacks   *prometheus.CounterVec
	ingestDur   *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	reconciles  *prometheus.CounterVec
	decisions   *prometheus.CounterVec
}

func NewBusinessMetrics(reg prometheus.Registerer) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	for _, def := range []*Metric{postbackTotal, postbackIngestDur, paymentTransitionTotal, refundReconcileTotal, productDecisionTotal} {
		c, err := NewMetric(def, "")
		if err != nil {
			return nil, err
		}
		if err := reg.Register(c); err != nil {
			return nil, err
		}
		switch def {
		case postbackTotal:
			m.postbacks = c.(*prometheus.CounterVec)
		case postbackIngestDur:
			m.ingestDur = c.(*prometheus.HistogramVec)
		case paymentTransitionTotal:
			m.transitions = c.(*prometheus.CounterVec)
		case refundReconcileTotal:
			m.reconciles = c.(*prometheus.CounterVec)
		case productDecisionTotal:
			m.decisions = c.(*prometheus.CounterVec)
		}
	}
	return m, nil
}

func (m *BusinessMetrics) ObservePostback(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.postbacks.WithLabelValues(outcome).Inc()
	m.ingestDur.WithLabelValues(outcome).Observe(MillisecondsSince(start))
}

func (m *BusinessMetrics) ObserveTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, result).Inc()
}

func (m *BusinessMetrics) ObserveReconcile(result string) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) ObserveProductDecision(status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(status).Inc()
}

func newRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
}

var Module = fx.Options(
	fx.Provide(newRegistry),
	fx.Provide(NewBusinessMetrics),
)
