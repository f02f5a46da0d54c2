package station

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the station gauges and counters.
type Metrics struct {
	Reading  *prometheus.GaugeVec
	Readings prometheus.Counter
	Pending  prometheus.Gauge
	Buffered prometheus.Gauge
	LinkUp   prometheus.Gauge
	Skipped  *prometheus.CounterVec
}

// NewMetrics creates and registers the station metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Reading: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aquanode",
			Name:      "reading",
			Help:      "Latest calibrated value per parameter.",
		}, []string{"parameter"}),
		Readings: f.NewCounter(prometheus.CounterOpts{
			Namespace: "aquanode",
			Name:      "readings_total",
			Help:      "Readings taken into the aggregation window.",
		}),
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "aquanode",
			Name:      "pending_samples",
			Help:      "Samples aggregated but not yet delivered.",
		}),
		Buffered: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "aquanode",
			Name:      "history_readings",
			Help:      "Readings held in the recent history window.",
		}),
		LinkUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "aquanode",
			Subsystem: "link",
			Name:      "up",
			Help:      "1 if the uplink target is reachable.",
		}),
		Skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquanode",
			Name:      "sends_skipped_total",
			Help:      "Send intervals that did not publish, by reason.",
		}, []string{"reason"}),
	}
}
