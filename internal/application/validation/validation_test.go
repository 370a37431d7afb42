package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

type fakeTransitionRepo struct {
	rows    []entity.WorkflowTransition
	loadErr error
}

func (r *fakeTransitionRepo) GetTransition(ctx context.Context, workflowType, currentStatus string) (*entity.WorkflowTransition, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].CurrentStatus == currentStatus {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *fakeTransitionRepo) GetTransitionByOrder(ctx context.Context, workflowType string, order int) (*entity.WorkflowTransition, error) {
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].Order == order {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *fakeTransitionRepo) GetAllTransitions(ctx context.Context, workflowType string) ([]entity.WorkflowTransition, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.rows, nil
}

func (r *fakeTransitionRepo) Seed(ctx context.Context, rows []entity.WorkflowTransition) error {
	return nil
}

// namedValidator lets chain tests observe call order.
type namedValidator struct {
	name string
	err  error
	log  *[]string
}

func (v *namedValidator) Name() string { return v.name }

func (v *namedValidator) Validate(ctx context.Context, vc *workflow.ValidationContext) error {
	*v.log = append(*v.log, v.name)
	return v.err
}

func ladderRows() []entity.WorkflowTransition {
	return []entity.WorkflowTransition{
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCompletion, NextStatus: entity.StatusPendingCommitteeApproval, Phase: "completion", ApprovalStage: entity.StageCompletion, Order: 0},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCommitteeApproval, NextStatus: entity.StatusPendingCEOApproval, Phase: "approval", ApprovalStage: entity.StageCommittee, Order: 1},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCEOApproval, NextStatus: entity.StatusApprovedPendingPayment, Phase: "approval", ApprovalStage: entity.StageCEO, Order: 2},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusApprovedPendingPayment, NextStatus: entity.StatusActive, Phase: "payment", ApprovalStage: entity.StagePayment, Order: 3},
	}
}

func ctxFor(status string) *workflow.ValidationContext {
	return &workflow.ValidationContext{
		Member: &entity.Member{
			ID:           "m-1",
			WorkflowType: entity.WorkflowTypeMembership,
			Status:       status,
		},
		CurrentStatus:    status,
		CurrentUserEmail: "alice@council.example",
	}
}

func TestChain_RunsInOrderAndShortCircuits(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	chain := NewChain(
		&namedValidator{name: "first", log: &calls},
		&namedValidator{name: "second", err: boom, log: &calls},
		&namedValidator{name: "third", log: &calls},
	)

	err := chain.Validate(context.Background(), ctxFor(entity.StatusPendingCommitteeApproval))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls, "the third validator must not run")
}

func TestTransitionExists_AttachesRow(t *testing.T) {
	v := NewTransitionExistsValidator(&fakeTransitionRepo{rows: ladderRows()})
	vc := ctxFor(entity.StatusPendingCommitteeApproval)

	require.NoError(t, v.Validate(context.Background(), vc))
	require.NotNil(t, vc.Transition)
	assert.Equal(t, entity.StageCommittee, vc.Transition.ApprovalStage)
	assert.Equal(t, 1, vc.Transition.Order)
	assert.Equal(t, entity.StatusPendingCEOApproval, vc.Transition.NextStatus)
}

func TestTransitionExists_FailsClosedOnMissingRow(t *testing.T) {
	v := NewTransitionExistsValidator(&fakeTransitionRepo{rows: ladderRows()})

	for _, status := range []string{entity.StatusActive, entity.StatusRejected, "invented"} {
		vc := ctxFor(status)
		err := v.Validate(context.Background(), vc)
		require.ErrorIs(t, err, workflow.ErrInvalidTransition, "status %s", status)
		assert.Nil(t, vc.Transition)
	}
}

func TestTransitionExists_LookupErrorIsPersistence(t *testing.T) {
	v := NewTransitionExistsValidator(&fakeTransitionRepo{loadErr: errors.New("connection reset")})

	err := v.Validate(context.Background(), ctxFor(entity.StatusPendingCommitteeApproval))
	require.ErrorIs(t, err, workflow.ErrPersistence)
}

func TestSequentialOrder_AcceptsConsistentRow(t *testing.T) {
	repo := &fakeTransitionRepo{rows: ladderRows()}
	exists := NewTransitionExistsValidator(repo)
	sequential := NewSequentialOrderValidator(repo)
	vc := ctxFor(entity.StatusPendingCEOApproval)

	require.NoError(t, exists.Validate(context.Background(), vc))
	require.NoError(t, sequential.Validate(context.Background(), vc))
}

func TestSequentialOrder_DetectsOrderDrift(t *testing.T) {
	repo := &fakeTransitionRepo{rows: ladderRows()}
	vc := ctxFor(entity.StatusPendingCEOApproval)
	vc.Transition = &entity.WorkflowTransition{
		WorkflowType:  entity.WorkflowTypeMembership,
		CurrentStatus: entity.StatusPendingCEOApproval,
		ApprovalStage: entity.StageCEO,
		Order:         7,
	}

	err := NewSequentialOrderValidator(repo).Validate(context.Background(), vc)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestSequentialOrder_RefusesStatusOutsideTable(t *testing.T) {
	repo := &fakeTransitionRepo{rows: ladderRows()}
	vc := ctxFor("invented")
	vc.Transition = &entity.WorkflowTransition{
		WorkflowType:  entity.WorkflowTypeMembership,
		CurrentStatus: "invented",
		Order:         1,
	}

	err := NewSequentialOrderValidator(repo).Validate(context.Background(), vc)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestApprovalOrder_NoSkippedStage(t *testing.T) {
	vc := ctxFor(entity.StatusPendingCEOApproval)
	vc.Transition = &entity.WorkflowTransition{ApprovalStage: entity.StageCEO, Order: 2}

	err := NewApprovalOrderValidator().Validate(context.Background(), vc)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition, "order 1 has no recorded action")

	vc.Member.ApprovalHistory = []entity.ApprovalEntry{
		{ApprovalStage: entity.StageCommittee, Order: 1, ApproverEmail: "alice@council.example"},
	}
	require.NoError(t, NewApprovalOrderValidator().Validate(context.Background(), vc))
}

func TestApprovalOrder_CommitteeRefusesSameActorTwice(t *testing.T) {
	vc := ctxFor(entity.StatusPendingCommitteeApproval)
	vc.Transition = &entity.WorkflowTransition{ApprovalStage: entity.StageCommittee, Order: 1}
	vc.Member.RejectionHistory = []entity.RejectionEntry{
		{RejectionStage: entity.StageCommittee, Order: 1, RejectorEmail: "alice@council.example"},
	}

	// Earlier feedback from the same actor blocks a second action.
	err := NewApprovalOrderValidator().Validate(context.Background(), vc)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	// A different actor is free to act.
	vc.CurrentUserEmail = "bob@council.example"
	require.NoError(t, NewApprovalOrderValidator().Validate(context.Background(), vc))
}

func TestApprovalOrder_NonCommitteeRefusesReapproval(t *testing.T) {
	vc := ctxFor(entity.StatusPendingCEOApproval)
	vc.Transition = &entity.WorkflowTransition{ApprovalStage: entity.StageCEO, Order: 2}
	vc.Member.ApprovalHistory = []entity.ApprovalEntry{
		{ApprovalStage: entity.StageCommittee, Order: 1, ApproverEmail: "alice@council.example"},
		{ApprovalStage: entity.StageCEO, Order: 2, ApproverEmail: "previous-ceo@council.example"},
	}

	err := NewApprovalOrderValidator().Validate(context.Background(), vc)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
