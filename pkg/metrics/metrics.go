package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestBuckets cover HTTP handling in milliseconds. Postbacks answer in
// tens of milliseconds; admin scans and refunds wait on the gateway.
var RequestBuckets = []float64{
	5, 10, 25, 50, 75, 100, 150, 200, 300, 500,
	750, 1000, 1500, 2000, 3000, 5000, 10000, 30000,
}

// IngestBuckets cover one postback from parse to reconciliation, including
// the lock wait and the gateway refund lookup.
var IngestBuckets = []float64{
	1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000,
}

type MetricType string

const (
	TypeCounterVec   MetricType = "counter_vec"
	TypeHistogramVec MetricType = "histogram_vec"
	TypeSummaryVec   MetricType = "summary_vec"
)

// Metric describes one labelled collector.
type Metric struct {
	ID          string
	Name        string
	Description string
	Type        MetricType
	Args        []string
	// Buckets apply to histograms; RequestBuckets when empty.
	Buckets []float64
}

// NewMetric builds the collector for m under subsystem.
func NewMetric(m *Metric, subsystem string) (prometheus.Collector, error) {
	switch m.Type {
	case TypeCounterVec:
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args), nil
	case TypeHistogramVec:
		buckets := m.Buckets
		if len(buckets) == 0 {
			buckets = RequestBuckets
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
			Buckets:   buckets,
		}, m.Args), nil
	case TypeSummaryVec:
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args), nil
	default:
		return nil, fmt.Errorf("metric %s: unsupported type %q", m.Name, m.Type)
	}
}

const (
	RefererKey = "X-Referer"
)

// MillisecondsSince reports the elapsed time since start as float milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
