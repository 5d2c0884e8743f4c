package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type managerMetrics struct {
	publishedBatches prometheus.Counter
	publishedRows    prometheus.Counter
	publishFailures  prometheus.Counter
	pinnedHandles    prometheus.Gauge
}

func newManagerMetrics(reg prometheus.Registerer) *managerMetrics {
	factory := promauto.With(reg)
	return &managerMetrics{
		publishedBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_exchange_published_batches_total",
			Help: "Number of encoded buffers published into the object store.",
		}),
		publishedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_exchange_published_rows_total",
			Help: "Number of rows published into the object store.",
		}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_exchange_publish_failures_total",
			Help: "Number of failed publish attempts.",
		}),
		pinnedHandles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_exchange_pinned_handles",
			Help: "Number of object handles currently pinned by the registry.",
		}),
	}
}
