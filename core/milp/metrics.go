package milp

import "github.com/prometheus/client_golang/prometheus"

var (
	nodesExplored prometheus.Counter
	lpSolves      *prometheus.CounterVec
)

func newCollectors() (prometheus.Counter, *prometheus.CounterVec) {
	nodes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "milp_nodes_total",
		Help: "Number of branch-and-bound nodes explored",
	})
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "milp_lp_solves_total",
		Help: "Number of LP relaxations solved, by outcome",
	}, []string{"status"})
	return nodes, solves
}

func init() {
	nodesExplored, lpSolves = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(nodesExplored, lpSolves)
}

// ResetMetrics reinitializes the collectors for testing purposes and
// registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	nodesExplored, lpSolves = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
