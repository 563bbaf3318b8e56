package training

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "wrestlestrong"

// Progression kinds recorded by Metrics.Progressions.
const (
	progressionWeek  = "week"
	progressionCycle = "cycle"
)

// Metrics describes training activity.
type Metrics struct {
	WorkoutsCompleted   prometheus.Counter
	AMRAPResults        prometheus.Counter
	Progressions        *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	CurrentCycle        prometheus.Gauge
	CurrentWeek         prometheus.Gauge
}

// NewMetrics registers the training metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WorkoutsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "workouts_completed_total",
			Help:      "Number of workouts marked as completed.",
		}),
		AMRAPResults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "amrap_results_total",
			Help:      "Number of AMRAP results recorded.",
		}),
		Progressions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "progressions_total",
			Help:      "Number of program advances by kind, week or cycle.",
		}, []string{"kind"}),
		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "persistence_failures_total",
			Help:      "Number of failed writes to the store.",
		}),
		CurrentCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "current_cycle",
			Help:      "Cycle number the athlete is in.",
		}),
		CurrentWeek: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "training",
			Name:      "current_week",
			Help:      "Week of the current cycle.",
		}),
	}
}
