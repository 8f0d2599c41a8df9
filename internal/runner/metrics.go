package runner

import "github.com/prometheus/client_golang/prometheus"

const (
	kindUnit       = "unit"
	kindAssignment = "assignment"
	kindOnboarding = "onboarding"

	classRecoverable  = "recoverable"
	classUnrecognized = "unrecognized"
)

var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegrid_launches_total",
			Help: "Total number of task launches by kind.",
		},
		[]string{"kind"},
	)

	faultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegrid_task_faults_total",
			Help: "Total number of task faults by kind and classification.",
		},
		[]string{"kind", "class"},
	)
)

func init() {
	prometheus.MustRegister(launchesTotal)
	prometheus.MustRegister(faultsTotal)
}
