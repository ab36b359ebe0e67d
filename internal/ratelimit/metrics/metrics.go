package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	FailOpenTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_ratelimit_checks_total",
			Help: "Quota checks by operation and outcome",
		}, []string{"operation", "outcome"}),
		FailOpenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderscope_ratelimit_fail_open_total",
			Help: "Checks allowed because the quota store failed",
		}),
	}
}
