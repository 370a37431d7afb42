package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencouncil/membership/internal/application/handler"
	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/application/validation"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

type stubMemberRepo struct {
	members map[string]*entity.Member
}

func (r *stubMemberRepo) Create(ctx context.Context, m *entity.Member) error { return nil }

func (r *stubMemberRepo) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
	}
	cp := *m
	cp.Users = append([]entity.MemberUser(nil), m.Users...)
	cp.ApprovalHistory = append([]entity.ApprovalEntry(nil), m.ApprovalHistory...)
	cp.RejectionHistory = append([]entity.RejectionEntry(nil), m.RejectionHistory...)
	return &cp, nil
}

func (r *stubMemberRepo) GetByApplicationNumber(ctx context.Context, applicationNumber string) (*entity.Member, error) {
	return nil, workflow.ErrNotFound
}

func (r *stubMemberRepo) List(ctx context.Context, limit, offset int) ([]*entity.Member, error) {
	return nil, nil
}

func (r *stubMemberRepo) Update(ctx context.Context, m *entity.Member) error { return nil }

func (r *stubMemberRepo) AppendApproval(ctx context.Context, id string, version int64, newStatus string, e entity.ApprovalEntry) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
	}
	m.ApprovalHistory = append(m.ApprovalHistory, e)
	m.Status = newStatus
	m.Version++
	return nil
}

func (r *stubMemberRepo) AppendRejection(ctx context.Context, id string, version int64, newStatus string, e entity.RejectionEntry) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
	}
	m.RejectionHistory = append(m.RejectionHistory, e)
	m.Status = newStatus
	m.Version++
	return nil
}

type stubTransitionRepo struct {
	rows []entity.WorkflowTransition
}

func (r *stubTransitionRepo) GetTransition(ctx context.Context, workflowType, currentStatus string) (*entity.WorkflowTransition, error) {
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].CurrentStatus == currentStatus {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *stubTransitionRepo) GetTransitionByOrder(ctx context.Context, workflowType string, order int) (*entity.WorkflowTransition, error) {
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].Order == order {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *stubTransitionRepo) GetAllTransitions(ctx context.Context, workflowType string) ([]entity.WorkflowTransition, error) {
	return r.rows, nil
}

func (r *stubTransitionRepo) Seed(ctx context.Context, rows []entity.WorkflowTransition) error {
	return nil
}

type stubNotifier struct{}

func (n *stubNotifier) Send(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) error {
	return nil
}

type stubIdentity struct{}

func (p *stubIdentity) CreateUser(ctx context.Context, u port.NewIdentityUser) (*port.ProvisionedUser, error) {
	return &port.ProvisionedUser{ExternalID: "ext-1", TemporaryPassword: "temp-secret"}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func ladder() []entity.WorkflowTransition {
	return []entity.WorkflowTransition{
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCompletion, NextStatus: entity.StatusPendingCommitteeApproval, Phase: "completion", ApprovalStage: entity.StageCompletion, Order: 0},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCommitteeApproval, NextStatus: entity.StatusPendingCEOApproval, Phase: "approval", ApprovalStage: entity.StageCommittee, Order: 1},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusPendingCEOApproval, NextStatus: entity.StatusApprovedPendingPayment, Phase: "approval", ApprovalStage: entity.StageCEO, Order: 2},
		{WorkflowType: entity.WorkflowTypeMembership, CurrentStatus: entity.StatusApprovedPendingPayment, NextStatus: entity.StatusActive, Phase: "payment", ApprovalStage: entity.StagePayment, Order: 3},
	}
}

func member(status string) *entity.Member {
	return &entity.Member{
		ID:                "m-1",
		ApplicationNumber: "APP-20260828-0001",
		WorkflowType:      entity.WorkflowTypeMembership,
		Status:            status,
		OrganisationInfo:  entity.OrganisationInfo{Name: "Harbour Logistics"},
		Users: []entity.MemberUser{
			{ID: "u-1", FirstName: "Rana", LastName: "Haddad", Email: "rana@harbour.example", Primary: true},
		},
		Version: 1,
	}
}

func newOrchestrator(members *stubMemberRepo, transitions *stubTransitionRepo) *Orchestrator {
	cfg := handler.Config{
		Quorum:             2,
		InitialStatus:      entity.StatusPendingCompletion,
		AllowedUserCount:   5,
		MembershipValidity: 365 * 24 * time.Hour,
		RejectionStages: map[string]entity.RejectionStage{
			entity.StatusPendingCompletion:        {Stage: entity.StageCompletion, Order: 0},
			entity.StatusPendingCommitteeApproval: {Stage: entity.StageCommittee, Order: 1},
			entity.StatusPendingCEOApproval:       {Stage: entity.StageCEO, Order: 2},
			entity.StatusApprovedPendingPayment:   {Stage: entity.StagePayment, Order: 3},
		},
	}
	notifier := &stubNotifier{}
	logger := nopLogger{}

	chain := validation.NewChain(
		validation.NewTransitionExistsValidator(transitions),
		validation.NewSequentialOrderValidator(transitions),
		validation.NewApprovalOrderValidator(),
	)

	return New(
		members,
		transitions,
		handler.NewSubmissionHandler(members, notifier, cfg, logger),
		handler.NewCompletionHandler(members, transitions, notifier, logger),
		handler.NewUpdateHandler(members, logger),
		handler.NewApprovalHandler(members, chain, notifier, cfg, logger),
		handler.NewRejectionHandler(members, transitions, notifier, cfg, logger),
		handler.NewPaymentHandler(members, &stubIdentity{}, notifier, cfg, logger),
		logger,
	)
}

func TestExecuteApproval_ResolvesPhaseFromCurrentStatus(t *testing.T) {
	members := &stubMemberRepo{members: map[string]*entity.Member{
		"m-1": member(entity.StatusPendingCommitteeApproval),
	}}
	o := newOrchestrator(members, &stubTransitionRepo{rows: ladder()})

	result, err := o.ExecuteApproval(context.Background(), "m-1", &workflow.ApprovalAction{
		ActionBy: "Reviewer", ActionByEmail: "alice@council.example",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseApproval, result.Phase)
}

func TestExecuteApproval_RefusesStatusOutsideApprovalPhase(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"completion phase", entity.StatusPendingCompletion},
		{"payment phase", entity.StatusApprovedPendingPayment},
		{"terminal active has no row", entity.StatusActive},
		{"terminal rejected has no row", entity.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := &stubMemberRepo{members: map[string]*entity.Member{
				"m-1": member(tt.status),
			}}
			o := newOrchestrator(members, &stubTransitionRepo{rows: ladder()})

			_, err := o.ExecuteApproval(context.Background(), "m-1", &workflow.ApprovalAction{
				ActionBy: "Reviewer", ActionByEmail: "alice@council.example",
			})
			require.ErrorIs(t, err, workflow.ErrInvalidTransition)
		})
	}
}

func TestExecuteApproval_UnknownMember(t *testing.T) {
	o := newOrchestrator(&stubMemberRepo{members: map[string]*entity.Member{}}, &stubTransitionRepo{rows: ladder()})

	_, err := o.ExecuteApproval(context.Background(), "ghost", &workflow.ApprovalAction{
		ActionBy: "Reviewer", ActionByEmail: "alice@council.example",
	})
	require.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestExecute_HandlerRefusalSurfacesAsTypedError(t *testing.T) {
	members := &stubMemberRepo{members: map[string]*entity.Member{
		"m-1": member(entity.StatusPendingCEOApproval),
	}}
	o := newOrchestrator(members, &stubTransitionRepo{rows: ladder()})

	// A rejection without an actor email fails the CanHandle contract.
	_, err := o.ExecuteRejection(context.Background(), "m-1", &workflow.RejectionAction{
		ActionBy: "Reviewer", Comments: "no actor email",
	})
	require.ErrorIs(t, err, workflow.ErrHandlerRejected)
}

func TestOrchestrator_EndToEndLadder(t *testing.T) {
	members := &stubMemberRepo{members: map[string]*entity.Member{
		"m-1": member(entity.StatusPendingCommitteeApproval),
	}}
	o := newOrchestrator(members, &stubTransitionRepo{rows: ladder()})
	ctx := context.Background()

	// Two committee votes reach the quorum.
	_, err := o.ExecuteApproval(ctx, "m-1", &workflow.ApprovalAction{ActionBy: "Alice", ActionByEmail: "alice@council.example"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingCommitteeApproval, members.members["m-1"].Status)

	_, err = o.ExecuteApproval(ctx, "m-1", &workflow.ApprovalAction{ActionBy: "Bob", ActionByEmail: "bob@council.example"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingCEOApproval, members.members["m-1"].Status)

	// CEO sign-off moves the application to payment.
	_, err = o.ExecuteApproval(ctx, "m-1", &workflow.ApprovalAction{ActionBy: "CEO", ActionByEmail: "ceo@council.example"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApprovedPendingPayment, members.members["m-1"].Status)

	// Approving again is refused: the current status is in the payment phase.
	_, err = o.ExecuteApproval(ctx, "m-1", &workflow.ApprovalAction{ActionBy: "CEO", ActionByEmail: "ceo@council.example"})
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
