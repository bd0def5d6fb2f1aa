package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks call origination outcomes.
type Metrics struct {
	CallsOriginated prometheus.Counter
	CallsRefused    prometheus.Counter
	GatewayErrors   prometheus.Counter
	DialDuration    prometheus.Histogram
}

// New creates a Metrics instance with all telephony metrics registered.
func New() *Metrics {
	return &Metrics{
		CallsOriginated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_calls_originated_total",
			Help: "Calls successfully handed to the PBX",
		}),
		CallsRefused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_calls_refused_total",
			Help: "Dial attempts refused because the user has no extension",
		}),
		GatewayErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "switchboard_dial_gateway_errors_total",
			Help: "Dial attempts that failed against the manager interface",
		}),
		DialDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_dial_duration_seconds",
			Help:    "Duration of dial attempts including the manager round trip",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveDial records the duration of a dial attempt.
func (m *Metrics) ObserveDial(start time.Time) {
	m.DialDuration.Observe(time.Since(start).Seconds())
}
