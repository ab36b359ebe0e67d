package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	OrdersScanned  prometheus.Counter
	RunErrorsTotal prometheus.Counter
	AlertsTotal    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_runs_total",
			Help: "Engine runs by operation",
		}, []string{"operation"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orderscope_run_duration_seconds",
			Help:    "Run wall time by operation",
			Buckets: prometheus.ExponentialBuckets(0.01, 3, 10),
		}, []string{"operation"}),
		OrdersScanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderscope_orders_scanned_total",
			Help: "Orders processed across all runs",
		}),
		RunErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderscope_run_order_errors_total",
			Help: "Per-order failures isolated during batch runs",
		}),
		AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_run_alerts_total",
			Help: "Threshold alerts raised from run summaries",
		}, []string{"kind"}),
	}
}
