package payout

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records receipt and audit outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	ReceiptsParsed *prometheus.CounterVec
	Audits         *prometheus.CounterVec
	Failures       *prometheus.CounterVec
	Percentile     prometheus.Histogram
}

// NewMetrics registers the GigGuard metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReceiptsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gigguard_receipts_parsed_total",
			Help: "Receipts parsed, by whether a penalty keyword was found",
		}, []string{"penalty"}),

		Audits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gigguard_audits_total",
			Help: "Shadow ban audits by resulting status",
		}, []string{"status"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gigguard_collaborator_failures_total",
			Help: "Collaborator failures degraded to default values",
		}, []string{"kind"}), // kind: "ocr", "transcription", "archive", "audit_log"

		Percentile: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gigguard_percentile_rank",
			Help:    "Percentile rank of audited earnings within their region",
			Buckets: []float64{1, 5, 10, 15, 25, 50, 75, 90, 100},
		}),
	}
}

// ObserveParse records a parsed receipt
func (m *Metrics) ObserveParse(penalty bool) {
	if m != nil {
		m.ReceiptsParsed.WithLabelValues(strconv.FormatBool(penalty)).Inc()
	}
}

// ObserveAudit records a scored audit
func (m *Metrics) ObserveAudit(status string, percentile float64) {
	if m != nil {
		m.Audits.WithLabelValues(status).Inc()
		m.Percentile.Observe(percentile)
	}
}

// IncrementFailure records a degraded collaborator failure
func (m *Metrics) IncrementFailure(kind string) {
	if m != nil {
		m.Failures.WithLabelValues(kind).Inc()
	}
}
