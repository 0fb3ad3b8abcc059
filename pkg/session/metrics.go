package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StunnerRequestsStarted counts opened requests
	StunnerRequestsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stunner_requests_started_total",
			Help: "Total number of command requests opened",
		},
	)

	// StunnerRequestsForceCleared counts requests discarded by a new Start
	StunnerRequestsForceCleared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stunner_requests_force_cleared_total",
			Help: "Total number of open requests discarded because another request started",
		},
	)

	// StunnerRequestsCompleted tracks how requests ended
	StunnerRequestsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stunner_requests_completed_total",
			Help: "Total number of completed requests by outcome",
		},
		[]string{"outcome"},
	)

	// StunnerCommands tracks executed, undone and redone commands
	StunnerCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stunner_commands_total",
			Help: "Total number of session commands by operation and result severity",
		},
		[]string{"operation", "severity"},
	)

	// StunnerCommandFaults counts panics recovered from commands
	StunnerCommandFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stunner_command_faults_total",
			Help: "Total number of runtime faults recovered from commands",
		},
		[]string{"operation"},
	)

	// StunnerHistoryDepth tracks the undo and redo stack sizes
	StunnerHistoryDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stunner_history_depth",
			Help: "Current number of entries in the undo and redo history",
		},
		[]string{"stack"},
	)
)

const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeEmpty      = "empty"
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(StunnerRequestsStarted)
	prometheus.MustRegister(StunnerRequestsForceCleared)
	prometheus.MustRegister(StunnerRequestsCompleted)
	prometheus.MustRegister(StunnerCommands)
	prometheus.MustRegister(StunnerCommandFaults)
	prometheus.MustRegister(StunnerHistoryDepth)
}
