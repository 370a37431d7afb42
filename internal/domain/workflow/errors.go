package workflow

import "errors"

var (
	// ErrNotFound is returned when the member or a history record is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when no transition row matches, the
	// order drifted from the table, a stage was skipped, or the actor
	// already acted at the stage.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidationFailure is returned when a required field is missing,
	// e.g. a rejection without a reason.
	ErrValidationFailure = errors.New("validation failure")

	// ErrExternalDependency is returned when the identity provider fails.
	// It is reported distinctly from persistence errors: an activation that
	// already committed stays committed.
	ErrExternalDependency = errors.New("external dependency failure")

	// ErrPersistence is returned when a storage write is rejected.
	ErrPersistence = errors.New("persistence failure")

	// ErrConflict is returned when the optimistic-concurrency check fails:
	// the member document changed between read and write.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrHandlerRejected is returned when a phase handler refuses the built
	// context. The orchestrator checks CanHandle before Handle as a
	// contract check, not mere logging.
	ErrHandlerRejected = errors.New("handler rejected workflow context")
)
