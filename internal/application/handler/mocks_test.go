package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// Mock repositories

type mockMemberRepo struct {
	createFunc          func(ctx context.Context, m *entity.Member) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.Member, error)
	getByAppNumberFunc  func(ctx context.Context, applicationNumber string) (*entity.Member, error)
	listFunc            func(ctx context.Context, limit, offset int) ([]*entity.Member, error)
	updateFunc          func(ctx context.Context, m *entity.Member) error
	appendApprovalFunc  func(ctx context.Context, id string, version int64, newStatus string, e entity.ApprovalEntry) error
	appendRejectionFunc func(ctx context.Context, id string, version int64, newStatus string, e entity.RejectionEntry) error
}

func (r *mockMemberRepo) Create(ctx context.Context, m *entity.Member) error {
	if r.createFunc != nil {
		return r.createFunc(ctx, m)
	}
	return nil
}

func (r *mockMemberRepo) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	if r.getByIDFunc != nil {
		return r.getByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
}

func (r *mockMemberRepo) GetByApplicationNumber(ctx context.Context, applicationNumber string) (*entity.Member, error) {
	if r.getByAppNumberFunc != nil {
		return r.getByAppNumberFunc(ctx, applicationNumber)
	}
	return nil, fmt.Errorf("%w: application %s", workflow.ErrNotFound, applicationNumber)
}

func (r *mockMemberRepo) List(ctx context.Context, limit, offset int) ([]*entity.Member, error) {
	if r.listFunc != nil {
		return r.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (r *mockMemberRepo) Update(ctx context.Context, m *entity.Member) error {
	if r.updateFunc != nil {
		return r.updateFunc(ctx, m)
	}
	m.Version++
	return nil
}

func (r *mockMemberRepo) AppendApproval(ctx context.Context, id string, version int64, newStatus string, e entity.ApprovalEntry) error {
	if r.appendApprovalFunc != nil {
		return r.appendApprovalFunc(ctx, id, version, newStatus, e)
	}
	return nil
}

func (r *mockMemberRepo) AppendRejection(ctx context.Context, id string, version int64, newStatus string, e entity.RejectionEntry) error {
	if r.appendRejectionFunc != nil {
		return r.appendRejectionFunc(ctx, id, version, newStatus, e)
	}
	return nil
}

// mockTransitionRepo serves lookups from an in-memory ladder.
type mockTransitionRepo struct {
	rows     []entity.WorkflowTransition
	getErr   error
	allErr   error
	seedFunc func(ctx context.Context, rows []entity.WorkflowTransition) error
}

func (r *mockTransitionRepo) GetTransition(ctx context.Context, workflowType, currentStatus string) (*entity.WorkflowTransition, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].CurrentStatus == currentStatus {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *mockTransitionRepo) GetTransitionByOrder(ctx context.Context, workflowType string, order int) (*entity.WorkflowTransition, error) {
	for i := range r.rows {
		if r.rows[i].WorkflowType == workflowType && r.rows[i].Order == order {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (r *mockTransitionRepo) GetAllTransitions(ctx context.Context, workflowType string) ([]entity.WorkflowTransition, error) {
	if r.allErr != nil {
		return nil, r.allErr
	}
	var out []entity.WorkflowTransition
	for _, row := range r.rows {
		if row.WorkflowType == workflowType {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *mockTransitionRepo) Seed(ctx context.Context, rows []entity.WorkflowTransition) error {
	if r.seedFunc != nil {
		return r.seedFunc(ctx, rows)
	}
	r.rows = rows
	return nil
}

// sentNotification records one Notifier.Send call.
type sentNotification struct {
	kind   port.NotificationKind
	member *entity.Member
	params map[string]string
}

type mockNotifier struct {
	sendFunc func(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) error
	sent     []sentNotification
}

func (n *mockNotifier) Send(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) error {
	n.sent = append(n.sent, sentNotification{kind: kind, member: m, params: params})
	if n.sendFunc != nil {
		return n.sendFunc(ctx, kind, m, params)
	}
	return nil
}

type mockIdentity struct {
	createUserFunc func(ctx context.Context, u port.NewIdentityUser) (*port.ProvisionedUser, error)
	calls          []port.NewIdentityUser
}

func (p *mockIdentity) CreateUser(ctx context.Context, u port.NewIdentityUser) (*port.ProvisionedUser, error) {
	p.calls = append(p.calls, u)
	if p.createUserFunc != nil {
		return p.createUserFunc(ctx, u)
	}
	return &port.ProvisionedUser{ExternalID: "ext-1", TemporaryPassword: "temp-secret"}, nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// Shared fixtures

func testConfig() Config {
	return Config{
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
}

func testLadder() []entity.WorkflowTransition {
	return []entity.WorkflowTransition{
		{
			WorkflowType:  entity.WorkflowTypeMembership,
			CurrentStatus: entity.StatusPendingCompletion,
			NextStatus:    entity.StatusPendingCommitteeApproval,
			Phase:         "completion",
			ApprovalStage: entity.StageCompletion,
			Order:         0,
		},
		{
			WorkflowType:  entity.WorkflowTypeMembership,
			CurrentStatus: entity.StatusPendingCommitteeApproval,
			NextStatus:    entity.StatusPendingCEOApproval,
			Phase:         "approval",
			ApprovalStage: entity.StageCommittee,
			Order:         1,
		},
		{
			WorkflowType:  entity.WorkflowTypeMembership,
			CurrentStatus: entity.StatusPendingCEOApproval,
			NextStatus:    entity.StatusApprovedPendingPayment,
			Phase:         "approval",
			ApprovalStage: entity.StageCEO,
			Order:         2,
		},
		{
			WorkflowType:  entity.WorkflowTypeMembership,
			CurrentStatus: entity.StatusApprovedPendingPayment,
			NextStatus:    entity.StatusActive,
			Phase:         "payment",
			ApprovalStage: entity.StagePayment,
			Order:         3,
		},
	}
}

func testMember(status string) *entity.Member {
	now := time.Now().UTC()
	return &entity.Member{
		ID:                "m-1",
		ApplicationNumber: "APP-2026-ABCDEF01",
		WorkflowType:      entity.WorkflowTypeMembership,
		Status:            status,
		OrganisationInfo: entity.OrganisationInfo{
			Name: "Harbour Logistics",
			Address: entity.Address{
				City:    "Dubai",
				Country: "UAE",
			},
		},
		Consent: entity.Consent{TermsAccepted: true, AcceptedAt: &now},
		Users: []entity.MemberUser{
			{ID: "u-1", FirstName: "Rana", LastName: "Haddad", Email: "rana@harbour.example", Primary: true},
		},
		PaymentStatus: entity.PaymentStatusPending,
		Version:       3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// memberStore returns a getByID func serving copies of m so handler retries
// observe fresh reads.
func memberStore(m *entity.Member) func(ctx context.Context, id string) (*entity.Member, error) {
	return func(ctx context.Context, id string) (*entity.Member, error) {
		if id != m.ID {
			return nil, fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
		}
		cp := *m
		cp.Users = append([]entity.MemberUser(nil), m.Users...)
		cp.ApprovalHistory = append([]entity.ApprovalEntry(nil), m.ApprovalHistory...)
		cp.RejectionHistory = append([]entity.RejectionEntry(nil), m.RejectionHistory...)
		return &cp, nil
	}
}
