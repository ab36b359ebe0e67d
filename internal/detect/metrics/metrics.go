package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DetectionsTotal     *prometheus.CounterVec
	SuspiciousTotal     prometheus.Counter
	DetectionConfidence prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		DetectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderscope_detections_total",
			Help: "Total IP detections by method used",
		}, []string{"method"}),
		SuspiciousTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderscope_suspicious_ips_total",
			Help: "Total detections whose final IP was classified as infrastructure",
		}),
		DetectionConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orderscope_detection_confidence",
			Help:    "Final confidence score distribution across detections",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
		}),
	}
}

func (m *Metrics) RecordDetection(method string, confidence float64, suspicious bool) {
	m.DetectionsTotal.WithLabelValues(method).Inc()
	m.DetectionConfidence.Observe(confidence)
	if suspicious {
		m.SuspiciousTotal.Inc()
	}
}
