package entity

import "time"

// ApprovalEntry is one accepted approval action. The history is append-only:
// entries are never reordered or deleted.
type ApprovalEntry struct {
	ApprovalStage string    `bson:"approvalStage" json:"approvalStage"`
	Order         int       `bson:"order" json:"order"`
	ApprovedBy    string    `bson:"approvedBy" json:"approvedBy"`
	ApproverEmail string    `bson:"approverEmail" json:"approverEmail"`
	Comments      string    `bson:"comments,omitempty" json:"comments,omitempty"`
	ApprovedAt    time.Time `bson:"approvedAt" json:"approvedAt"`
}

// RejectionEntry is one rejection action, symmetric to ApprovalEntry. At the
// committee stage a rejection is feedback that counts toward the quorum; it
// does not by itself set the member status to rejected.
type RejectionEntry struct {
	RejectionStage string    `bson:"rejectionStage" json:"rejectionStage"`
	Order          int       `bson:"order" json:"order"`
	RejectedBy     string    `bson:"rejectedBy" json:"rejectedBy"`
	RejectorEmail  string    `bson:"rejectorEmail" json:"rejectorEmail"`
	Reason         string    `bson:"reason" json:"reason"`
	RejectedAt     time.Time `bson:"rejectedAt" json:"rejectedAt"`
}
