package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsReapedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transitions by resulting status.",
		},
		[]string{"status"},
	)

	paymentsReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_reaped_total",
			Help: "Pending payments auto-rejected after the timeout.",
		},
	)
)

func IncPayments(status string) { paymentsTotal.WithLabelValues(status).Inc() }
func AddPaymentsReaped(n int)   { paymentsReapedTotal.Add(float64(n)) }
