package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		credentialsAvailable,
		credentialsAllocatedTotal,
		credentialsReclaimedTotal,
	)
}

var (
	credentialsAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pool_credentials_available",
			Help: "Available credentials per plan pool.",
		},
		[]string{"plan"},
	)

	credentialsAllocatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pool_credentials_allocated_total",
			Help: "Credentials handed out to subscriptions, per plan.",
		},
		[]string{"plan"},
	)

	credentialsReclaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pool_credentials_reclaimed_total",
			Help: "Credentials returned to the pool, per plan.",
		},
		[]string{"plan"},
	)
)

func SetPoolAvailable(counts map[string]int) {
	for plan, n := range counts {
		credentialsAvailable.WithLabelValues(plan).Set(float64(n))
	}
}

func IncCredentialsAllocated(plan string) { credentialsAllocatedTotal.WithLabelValues(plan).Inc() }
func IncCredentialsReclaimed(plan string) { credentialsReclaimedTotal.WithLabelValues(plan).Inc() }
