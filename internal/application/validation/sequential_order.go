package validation

import (
	"context"
	"fmt"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// SequentialOrderValidator reloads the full transition table and verifies the
// attached row is consistent with it: the current status must be a member of
// the configured status set and the row's order must match exactly. This
// defends against table corruption or drift between the lookup and the rest
// of the ladder.
type SequentialOrderValidator struct {
	transitions port.TransitionRepository
}

// NewSequentialOrderValidator creates the second validator of the chain.
func NewSequentialOrderValidator(transitions port.TransitionRepository) *SequentialOrderValidator {
	return &SequentialOrderValidator{transitions: transitions}
}

func (v *SequentialOrderValidator) Name() string { return "sequential-order" }

func (v *SequentialOrderValidator) Validate(ctx context.Context, vc *workflow.ValidationContext) error {
	if vc.Transition == nil {
		return fmt.Errorf("%w: no transition attached for status %s", workflow.ErrInvalidTransition, vc.CurrentStatus)
	}

	rows, err := v.transitions.GetAllTransitions(ctx, vc.Transition.WorkflowType)
	if err != nil {
		return fmt.Errorf("%w: transition table load: %v", workflow.ErrPersistence, err)
	}

	for _, row := range rows {
		if row.CurrentStatus != vc.CurrentStatus {
			continue
		}
		if row.Order != vc.Transition.Order {
			return fmt.Errorf("%w: transition order mismatch for status %s: table has %d, context has %d",
				workflow.ErrInvalidTransition, vc.CurrentStatus, row.Order, vc.Transition.Order)
		}
		return nil
	}

	return fmt.Errorf("%w: status %s is not part of the configured workflow",
		workflow.ErrInvalidTransition, vc.CurrentStatus)
}
