package port

import (
	"context"

	"github.com/opencouncil/membership/internal/domain/entity"
)

// MemberRepository defines persistence operations for Member documents.
// Mutating operations are conditional on the version observed at read time:
// the storage layer rejects the write with workflow.ErrConflict when the
// document changed in between, so read-validate-write cycles stay serialized
// per entity without in-process locks.
type MemberRepository interface {
	Create(ctx context.Context, m *entity.Member) error

	// GetByID returns workflow.ErrNotFound when no document matches.
	GetByID(ctx context.Context, id string) (*entity.Member, error)
	GetByApplicationNumber(ctx context.Context, applicationNumber string) (*entity.Member, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Member, error)

	// Update persists all mutable fields of m, conditional on m.Version.
	Update(ctx context.Context, m *entity.Member) error

	// AppendApproval atomically sets the status and appends the history
	// entry in a single conditional update. The predicate also refuses a
	// second entry for the same (order, approverEmail) pair.
	AppendApproval(ctx context.Context, id string, version int64, newStatus string, e entity.ApprovalEntry) error

	// AppendRejection is symmetric to AppendApproval for rejection entries.
	AppendRejection(ctx context.Context, id string, version int64, newStatus string, e entity.RejectionEntry) error
}

// TransitionRepository is the read-only query surface over the workflow
// transition table in master data. Absence of a row is a normal outcome and
// is reported as (nil, nil), never as an error.
type TransitionRepository interface {
	GetTransition(ctx context.Context, workflowType, currentStatus string) (*entity.WorkflowTransition, error)
	GetTransitionByOrder(ctx context.Context, workflowType string, order int) (*entity.WorkflowTransition, error)
	GetAllTransitions(ctx context.Context, workflowType string) ([]entity.WorkflowTransition, error)

	// Seed inserts the configured ladder when the table is empty. Owned by
	// the master-data subsystem in production; exposed here for bootstrap.
	Seed(ctx context.Context, rows []entity.WorkflowTransition) error
}
