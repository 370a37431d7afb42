package workflow

import "fmt"

// Phase is a closed enum of onboarding lifecycle steps. The orchestrator
// dispatches on it exhaustively; an unknown phase is a programming error.
type Phase int

const (
	PhaseSubmission Phase = iota + 1
	PhaseCompletion
	PhaseUpdate
	PhaseApproval
	PhaseRejection
	PhasePayment
)

var phaseNames = map[Phase]string{
	PhaseSubmission: "submission",
	PhaseCompletion: "completion",
	PhaseUpdate:     "update",
	PhaseApproval:   "approval",
	PhaseRejection:  "rejection",
	PhasePayment:    "payment",
}

// String returns the phase name as stored in transition table rows.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// IsValid reports whether p is one of the declared phases.
func (p Phase) IsValid() bool {
	_, ok := phaseNames[p]
	return ok
}

// ParsePhase maps a transition-row phase name to its Phase value.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown workflow phase %q", name)
}
