package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsExpiredTotal,
		sweepRunsTotal,
		sweepItemFailuresTotal,
	)
}

var (
	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions expired by the lifecycle monitor.",
		},
	)

	sweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_sweep_runs_total",
			Help: "Completed expiration sweeps.",
		},
	)

	sweepItemFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_sweep_item_failures_total",
			Help: "Per-subscription failures skipped during sweeps.",
		},
	)
)

func AddSubscriptionsExpired(n int) { subscriptionsExpiredTotal.Add(float64(n)) }
func IncSweepRuns()                 { sweepRunsTotal.Inc() }
func IncSweepItemFailures()         { sweepItemFailuresTotal.Inc() }
