// Package orchestrator is the single entry point of the onboarding workflow
// engine. Each caller-facing operation has one façade method that builds a
// workflow context, selects the handler for the phase, and runs the
// CanHandle/Handle contract.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/opencouncil/membership/internal/application/handler"
	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// Logger is the minimal logging dependency of the orchestrator.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Orchestrator wires the phase handlers behind the operation surface
// consumed by the HTTP layer.
type Orchestrator struct {
	members     port.MemberRepository
	transitions port.TransitionRepository

	submission *handler.SubmissionHandler
	completion *handler.CompletionHandler
	update     *handler.UpdateHandler
	approval   *handler.ApprovalHandler
	rejection  *handler.RejectionHandler
	payment    *handler.PaymentHandler

	logger Logger
}

// New creates the orchestrator over the given handlers.
func New(
	members port.MemberRepository,
	transitions port.TransitionRepository,
	submission *handler.SubmissionHandler,
	completion *handler.CompletionHandler,
	update *handler.UpdateHandler,
	approval *handler.ApprovalHandler,
	rejection *handler.RejectionHandler,
	payment *handler.PaymentHandler,
	logger Logger,
) *Orchestrator {
	return &Orchestrator{
		members:     members,
		transitions: transitions,
		submission:  submission,
		completion:  completion,
		update:      update,
		approval:    approval,
		rejection:   rejection,
		payment:     payment,
		logger:      logger,
	}
}

// ExecutePhase1 submits a new application.
func (o *Orchestrator) ExecutePhase1(ctx context.Context, payload *workflow.SubmissionPayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhaseSubmission, Payload: payload}
	return o.execute(ctx, wc)
}

// ExecutePhase2 completes an existing application.
func (o *Orchestrator) ExecutePhase2(ctx context.Context, id string, payload *workflow.CompletionPayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhaseCompletion, EntityID: id, Payload: payload}
	return o.execute(ctx, wc)
}

// ExecutePhase3 applies a post-approval user update to an active membership.
func (o *Orchestrator) ExecutePhase3(ctx context.Context, id string, payload *workflow.UpdatePayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhaseUpdate, EntityID: id, Payload: payload}
	return o.execute(ctx, wc)
}

// ExecuteApproval records an approval action. The member's current status is
// read first and the transition table decides which phase constant it maps
// to, so the stage-aware handler path is taken even though approval is a
// single verb at the API surface.
func (o *Orchestrator) ExecuteApproval(ctx context.Context, id string, action *workflow.ApprovalAction) (*workflow.Result, error) {
	m, err := o.members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	row, err := o.transitions.GetTransition(ctx, m.WorkflowType, m.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: transition lookup: %v", workflow.ErrPersistence, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: no valid transition for status %s", workflow.ErrInvalidTransition, m.Status)
	}

	phase, err := workflow.ParsePhase(row.Phase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidTransition, err)
	}
	if phase != workflow.PhaseApproval {
		return nil, fmt.Errorf("%w: status %s is in phase %s, not awaiting approval",
			workflow.ErrInvalidTransition, m.Status, phase)
	}

	wc := &workflow.Context{Phase: workflow.PhaseApproval, EntityID: id, Member: m, Payload: action}
	return o.execute(ctx, wc)
}

// ExecuteRejection records a rejection action.
func (o *Orchestrator) ExecuteRejection(ctx context.Context, id string, action *workflow.RejectionAction) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhaseRejection, EntityID: id, Payload: action}
	return o.execute(ctx, wc)
}

// AddPaymentLink attaches a payment link to an approved application.
func (o *Orchestrator) AddPaymentLink(ctx context.Context, id string, payload *workflow.PaymentLinkPayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhasePayment, EntityID: id, Payload: payload}
	return o.execute(ctx, wc)
}

// CompletePayment activates a membership after payment.
func (o *Orchestrator) CompletePayment(ctx context.Context, id string, payload *workflow.PaymentCompletePayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhasePayment, EntityID: id, Payload: payload}
	return o.execute(ctx, wc)
}

// ResetPayment clears the payment link and sets a caller-supplied payment
// status.
func (o *Orchestrator) ResetPayment(ctx context.Context, id string, payload *workflow.PaymentResetPayload) (*workflow.Result, error) {
	wc := &workflow.Context{Phase: workflow.PhasePayment, EntityID: id, Payload: payload}
	return o.execute(ctx, wc)
}

// GetMember returns a member by ID.
func (o *Orchestrator) GetMember(ctx context.Context, id string) (*entity.Member, error) {
	return o.members.GetByID(ctx, id)
}

// ListMembers returns a page of members.
func (o *Orchestrator) ListMembers(ctx context.Context, limit, offset int) ([]*entity.Member, error) {
	return o.members.List(ctx, limit, offset)
}

// execute runs the CanHandle/Handle contract for the context's phase. The
// CanHandle check is a defensive contract check: a refusal surfaces as a
// typed failure, never as a silent no-op.
func (o *Orchestrator) execute(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	h, err := o.handlerFor(wc.Phase)
	if err != nil {
		return nil, err
	}

	if !h.CanHandle(wc) {
		o.logger.Error("Handler rejected workflow context",
			"phase", wc.Phase.String(),
			"entity_id", wc.EntityID)
		return nil, fmt.Errorf("%w: phase %s", workflow.ErrHandlerRejected, wc.Phase)
	}

	return h.Handle(ctx, wc)
}

// handlerFor matches each phase to its handler exhaustively.
func (o *Orchestrator) handlerFor(phase workflow.Phase) (handler.PhaseHandler, error) {
	switch phase {
	case workflow.PhaseSubmission:
		return o.submission, nil
	case workflow.PhaseCompletion:
		return o.completion, nil
	case workflow.PhaseUpdate:
		return o.update, nil
	case workflow.PhaseApproval:
		return o.approval, nil
	case workflow.PhaseRejection:
		return o.rejection, nil
	case workflow.PhasePayment:
		return o.payment, nil
	default:
		return nil, fmt.Errorf("%w: unknown phase %s", workflow.ErrHandlerRejected, phase)
	}
}
