package entity

// WorkflowTypeMembership is the workflow type of the member onboarding ladder.
// The transition table in master data is keyed by workflow type so additional
// ladders can be configured without code changes.
const WorkflowTypeMembership = "membership"

// Member statuses. The set is closed; the transition table decides which of
// these are reachable from where.
const (
	StatusPendingCompletion        = "pendingCompletion"
	StatusPendingCommitteeApproval = "pendingCommitteeApproval"
	StatusPendingCEOApproval       = "pendingCeoApproval"
	StatusApprovedPendingPayment   = "approvedPendingPayment"
	StatusActive                   = "active"
	StatusRejected                 = "rejected"
)

// Approval stages referenced by transition rows and history entries.
const (
	StageCompletion = "completion"
	StageCommittee  = "committee"
	StageCEO        = "ceo"
	StagePayment    = "payment"
)

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusLinked  = "linked"
	PaymentStatusPaid    = "paid"
)

// IsTerminalStatus returns true for absorbing states. Terminal members are
// never resurrected by a phase handler; only explicit reset operations touch
// them again.
func IsTerminalStatus(status string) bool {
	return status == StatusActive || status == StatusRejected
}
