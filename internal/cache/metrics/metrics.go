package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HitsTotal          *prometheus.CounterVec
	MissesTotal        *prometheus.CounterVec
	WritesTotal        *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	InvalidationsTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		HitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_cache_hits_total",
			Help: "Cache hits by operation prefix",
		}, []string{"prefix"}),
		MissesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_cache_misses_total",
			Help: "Cache misses by operation prefix, stale entries included",
		}, []string{"prefix"}),
		WritesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_cache_writes_total",
			Help: "Successful cache writes by operation prefix",
		}, []string{"prefix"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_cache_errors_total",
			Help: "Backend failures swallowed by the cache layer, by operation",
		}, []string{"op"}),
		InvalidationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderscope_cache_invalidations_total",
			Help: "Entries removed by explicit invalidation",
		}),
	}
}
