package orchestrator

import (
	"errors"
	"time"

	"ragctl/internal/kube"
)

// ReadinessOutcome classifies how a bounded readiness wait ended.
type ReadinessOutcome int

const (
	ReadinessReady ReadinessOutcome = iota
	ReadinessTimedOut
	// ReadinessPreconditionFailed covers everything that polling longer
	// cannot fix: permission failures, API errors, failed renders. Always
	// fatal, whatever the stage's criticality.
	ReadinessPreconditionFailed
)

// Per-stage readiness deadlines. The store gets the longest one: a multi-pod
// stateful system pulling several images routinely needs minutes, and it is
// the one dependency everything downstream blocks on.
const (
	storeReadinessDeadline    = 10 * time.Minute
	servicesReadinessDeadline = 3 * time.Minute
	gatewayReadinessDeadline  = 2 * time.Minute
)

// classifyReadiness maps a stage action error onto the readiness taxonomy.
// Only a genuine timeout is ever tolerable; the sequencer decides whether it
// is, based on the stage's criticality.
func classifyReadiness(err error) ReadinessOutcome {
	switch {
	case err == nil:
		return ReadinessReady
	case errors.Is(err, kube.ErrReadinessTimeout):
		return ReadinessTimedOut
	default:
		return ReadinessPreconditionFailed
	}
}
