package registrar

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the controller.
type Metrics struct {
	Registrations prometheus.Counter
	Renewals      prometheus.Counter
	Rejections    *prometheus.CounterVec
	Revenue       prometheus.Counter
	Epochs        prometheus.Gauge
	TxDuration    *prometheus.HistogramVec
}

// NewMetrics creates the controller metrics registered with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "names_registrations_total",
			Help: "Total number of committed registrations",
		}),
		Renewals: factory.NewCounter(prometheus.CounterOpts{
			Name: "names_renewals_total",
			Help: "Total number of committed renewals",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "names_rejections_total",
			Help: "Rejected operations by reason",
		}, []string{"op", "reason"}),
		Revenue: factory.NewCounter(prometheus.CounterOpts{
			Name: "names_revenue_wei_total",
			Help: "Cost forwarded to the team address, in wei (float approximation)",
		}),
		Epochs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "names_epochs",
			Help: "Number of phases in the schedule",
		}),
		TxDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "names_tx_duration_seconds",
			Help:    "Duration of payable operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),
	}
}

func (m *Metrics) observe(op string, start time.Time) {
	m.TxDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) reject(op string, err error) {
	m.Rejections.WithLabelValues(op, Reason(err)).Inc()
}

func (m *Metrics) earn(cost *big.Int) {
	f, _ := new(big.Float).SetInt(cost).Float64()
	m.Revenue.Add(f)
}
