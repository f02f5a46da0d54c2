package uplink

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the uplink instrumentation.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Attempts        prometheus.Counter
	Published       *prometheus.CounterVec
}

// NewMetrics creates and registers the uplink metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aquanode",
			Subsystem: "uplink",
			Name:      "request_duration_seconds",
			Help:      "Duration of uplink HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method", "host"}),
		Attempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "aquanode",
			Subsystem: "uplink",
			Name:      "attempts_total",
			Help:      "Publish attempts including retries.",
		}),
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquanode",
			Subsystem: "uplink",
			Name:      "reports_total",
			Help:      "Reports handed to the uplink, by outcome.",
		}, []string{"outcome"}),
	}
}

// InstrumentRoundTripperDuration copies the promhttp implementation but also
// partitions by requested host.
func InstrumentRoundTripperDuration(obs prometheus.ObserverVec, next http.RoundTripper) promhttp.RoundTripperFunc {
	return promhttp.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		if err == nil {
			obs.With(
				prometheus.Labels{
					"code":   resp.Status,
					"method": r.Method,
					"host":   r.URL.Host,
				},
			).Observe(time.Since(start).Seconds())
		}
		return resp, err
	})
}
