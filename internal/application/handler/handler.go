// Package handler contains one phase handler per onboarding lifecycle phase.
// All handlers implement the same contract: the orchestrator asks CanHandle
// before Handle and treats a refusal as a typed failure.
package handler

import (
	"context"
	"time"

	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// Logger is the minimal logging dependency handlers need.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PhaseHandler is the uniform contract of all phase handlers.
type PhaseHandler interface {
	// CanHandle reports whether the handler accepts the context: phase
	// match plus a payload of the expected type.
	CanHandle(wc *workflow.Context) bool

	// Handle executes the phase. Failures are errors from the workflow
	// taxonomy; Result is returned only on success.
	Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error)
}

// Config carries the externally configured workflow parameters shared by the
// handlers. The rejection stage map is injected here rather than living as a
// package global so it stays testable and swappable per deployment.
type Config struct {
	// Quorum is the number of committee actions (approvals + rejections)
	// required before the committee stage advances.
	Quorum int

	// InitialStatus is the status fixed onto every new application;
	// caller-supplied statuses are ignored.
	InitialStatus string

	// AllowedUserCount is stamped onto the member on activation.
	AllowedUserCount int

	// MembershipValidity is added to the activation time to produce
	// validUntil.
	MembershipValidity time.Duration

	// RejectionStages maps a current status to the stage and order a
	// rejection is recorded under.
	RejectionStages map[string]entity.RejectionStage
}

// conflictRetries bounds the read-validate-write retry cycle on version
// conflicts before the operation gives up.
const conflictRetries = 3
