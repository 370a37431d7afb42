package workflow

import "github.com/opencouncil/membership/internal/domain/entity"

// Context carries one workflow operation through handler selection and
// execution. It is built by the orchestrator and passed by pointer.
type Context struct {
	Phase    Phase
	EntityID string

	// Member is the entity as loaded by the orchestrator. Handlers that
	// retry after a version conflict reload it themselves.
	Member *entity.Member

	// Payload is the phase-specific input; handlers type-assert it in
	// CanHandle.
	Payload any
}

// ValidationContext is the mutable bag of state threaded through the
// validator chain for one validate call. Validators enrich it: the
// transition-existence validator attaches Transition for the validators and
// handler behind it. It must always be passed by pointer so side-channel
// fields survive.
type ValidationContext struct {
	Member           *entity.Member
	CurrentStatus    string
	CurrentUserEmail string

	// Transition is populated by the transition-existence validator.
	Transition *entity.WorkflowTransition
}

// Result is the uniform outcome of a successfully handled operation. Failures
// travel as errors from the taxonomy in errors.go.
type Result struct {
	Member  *entity.Member
	Phase   Phase
	Message string
}
