package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
)

const namespace = "etoken"

var (
	metricOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes",
			Help:      "Operation outcomes by component, operation and rejection code",
		},
		[]string{"component", "operation", "result", "code"},
	)

	metricHardErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hard_errors",
			Help:      "Operations aborted with an error",
		},
		[]string{"component", "operation"},
	)

	metricEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events",
			Help:      "Emitted events by name",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(
		metricOutcomes,
		metricHardErrors,
		metricEvents,
	)
}

// Outcome counts the result of an operation. A non-nil err is counted as a hard error.
func Outcome(component, operation string, o errs.Outcome, err error) {
	if err != nil {
		metricHardErrors.WithLabelValues(component, operation).Inc()
		return
	}
	result := "accepted"
	if !o.Accepted {
		result = "rejected"
	}
	metricOutcomes.WithLabelValues(component, operation, result, string(o.Code)).Inc()
}

// Event counts the event and reports it to InfluxDB if reporting is started.
func Event(e events.Event) {
	metricEvents.WithLabelValues(string(e.Name)).Inc()
	reportEvent(e)
}
