package launcher

import "github.com/prometheus/client_golang/prometheus"

var (
	pendingUnits = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hivegrid_pending_units",
		Help: "Number of units waiting for an admission slot.",
	})

	activeUnits = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hivegrid_active_units",
		Help: "Number of units currently holding an admission slot.",
	})

	unitsAdmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hivegrid_units_admitted_total",
		Help: "Total number of units promoted from pending to active.",
	})

	assignmentsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hivegrid_assignments_registered_total",
		Help: "Total number of assignments registered from the data source.",
	})
)

func init() {
	prometheus.MustRegister(pendingUnits)
	prometheus.MustRegister(activeUnits)
	prometheus.MustRegister(unitsAdmitted)
	prometheus.MustRegister(assignmentsRegistered)
}
