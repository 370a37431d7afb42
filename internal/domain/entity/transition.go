package entity

// WorkflowTransition is one row of the workflow transition table: the single
// source of truth for legal status transitions. Rows live in master data and
// are read-only to this engine; absence of a row means "no legal transition"
// and callers fail closed.
type WorkflowTransition struct {
	WorkflowType  string `bson:"workflowType" json:"workflowType"`
	CurrentStatus string `bson:"currentStatus" json:"currentStatus"`
	NextStatus    string `bson:"nextStatus" json:"nextStatus"`
	Phase         string `bson:"phase" json:"phase"`
	ApprovalStage string `bson:"approvalStage" json:"approvalStage"`
	Order         int    `bson:"order" json:"order"`
}

// RejectionStage maps a current status to the stage and order a rejection is
// recorded under. Rejection branches off the approval ladder, so it uses this
// static mapping from configuration rather than the transition table.
type RejectionStage struct {
	Stage string `mapstructure:"stage" json:"stage"`
	Order int    `mapstructure:"order" json:"order"`
}
