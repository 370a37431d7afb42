package validation

import (
	"context"
	"fmt"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// TransitionExistsValidator looks up the transition row for the member's
// current status and attaches it to the context. A missing row means the
// status is terminal or unknown: the chain fails closed.
type TransitionExistsValidator struct {
	transitions port.TransitionRepository
}

// NewTransitionExistsValidator creates the first validator of the chain.
func NewTransitionExistsValidator(transitions port.TransitionRepository) *TransitionExistsValidator {
	return &TransitionExistsValidator{transitions: transitions}
}

func (v *TransitionExistsValidator) Name() string { return "transition-exists" }

func (v *TransitionExistsValidator) Validate(ctx context.Context, vc *workflow.ValidationContext) error {
	if vc.Member == nil {
		return fmt.Errorf("%w: validation context has no member", workflow.ErrValidationFailure)
	}

	row, err := v.transitions.GetTransition(ctx, vc.Member.WorkflowType, vc.CurrentStatus)
	if err != nil {
		return fmt.Errorf("%w: transition lookup: %v", workflow.ErrPersistence, err)
	}
	if row == nil {
		return fmt.Errorf("%w: no valid transition for status %s", workflow.ErrInvalidTransition, vc.CurrentStatus)
	}

	vc.Transition = row
	return nil
}
