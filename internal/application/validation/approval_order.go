package validation

import (
	"context"
	"fmt"

	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// ApprovalOrderValidator enforces the approval ladder rules on the member's
// history:
//
//   - no skipped stage: every order below the current one must have at least
//     one approval or rejection entry
//   - the committee stage tolerates entries from multiple actors but refuses
//     a second entry from the same actor
//   - non-committee stages refuse re-approving an order that already has an
//     approval entry
type ApprovalOrderValidator struct{}

// NewApprovalOrderValidator creates the last validator of the chain.
func NewApprovalOrderValidator() *ApprovalOrderValidator {
	return &ApprovalOrderValidator{}
}

func (v *ApprovalOrderValidator) Name() string { return "approval-order" }

func (v *ApprovalOrderValidator) Validate(_ context.Context, vc *workflow.ValidationContext) error {
	if vc.Transition == nil {
		return fmt.Errorf("%w: no transition attached for status %s", workflow.ErrInvalidTransition, vc.CurrentStatus)
	}
	m := vc.Member
	if m == nil {
		return fmt.Errorf("%w: validation context has no member", workflow.ErrValidationFailure)
	}

	order := vc.Transition.Order
	for prior := 1; prior < order; prior++ {
		if !m.HasActionAtOrder(prior) {
			return fmt.Errorf("%w: approval stage %d cannot proceed: stage %d has no recorded action",
				workflow.ErrInvalidTransition, order, prior)
		}
	}

	if vc.Transition.ApprovalStage == entity.StageCommittee {
		if m.HasActedAtOrder(order, vc.CurrentUserEmail) {
			return fmt.Errorf("%w: %s already acted at stage %d",
				workflow.ErrInvalidTransition, vc.CurrentUserEmail, order)
		}
		return nil
	}

	if m.HasApprovalAtOrder(order) {
		return fmt.Errorf("%w: stage %d already has an approval", workflow.ErrInvalidTransition, order)
	}
	return nil
}
