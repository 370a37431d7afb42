package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// CompletionHandler finishes the application on Phase2. The partial payload
// deep-merges into the stored document: fields the caller omitted keep their
// value. The status advance is linear (driven by the completion row of the
// transition table), not subject to the approval ladder, so no validator
// chain runs.
type CompletionHandler struct {
	members     port.MemberRepository
	transitions port.TransitionRepository
	notifier    port.Notifier
	logger      Logger
}

// NewCompletionHandler creates the Phase2 handler.
func NewCompletionHandler(members port.MemberRepository, transitions port.TransitionRepository, notifier port.Notifier, logger Logger) *CompletionHandler {
	return &CompletionHandler{members: members, transitions: transitions, notifier: notifier, logger: logger}
}

func (h *CompletionHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhaseCompletion {
		return false
	}
	_, ok := wc.Payload.(*workflow.CompletionPayload)
	return ok
}

func (h *CompletionHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	payload := wc.Payload.(*workflow.CompletionPayload)

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, wc.EntityID)
		if err != nil {
			return nil, err
		}
		if entity.IsTerminalStatus(m.Status) {
			return nil, fmt.Errorf("%w: membership %s is %s and cannot be completed",
				workflow.ErrInvalidTransition, m.ID, m.Status)
		}

		row, err := h.transitions.GetTransition(ctx, m.WorkflowType, m.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: transition lookup: %v", workflow.ErrPersistence, err)
		}
		if row == nil || row.Phase != workflow.PhaseCompletion.String() {
			return nil, fmt.Errorf("%w: status %s does not accept completion",
				workflow.ErrInvalidTransition, m.Status)
		}

		now := time.Now().UTC()
		payload.OrganisationInfo.ApplyTo(&m.OrganisationInfo)
		payload.Consent.ApplyTo(&m.Consent, now)
		for _, u := range payload.Users {
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			m.UpsertUser(u)
		}

		m.Status = row.NextStatus
		m.UpdatedAt = now

		err = h.members.Update(ctx, m)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		h.notify(ctx, m)

		h.logger.Info("Application completed",
			"member_id", m.ID,
			"status", m.Status)

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhaseCompletion,
			Message: fmt.Sprintf("application %s completed, now %s", m.ApplicationNumber, m.Status),
		}, nil
	}
}

func (h *CompletionHandler) notify(ctx context.Context, m *entity.Member) {
	// Member and admin notifications; both best-effort.
	params := map[string]string{
		"applicationNumber": m.ApplicationNumber,
	}
	if err := h.notifier.Send(ctx, port.NotifyCompletionReceived, m, params); err != nil {
		h.logger.Error("Completion notification failed", "member_id", m.ID, "error", err)
	}
	if err := h.notifier.Send(ctx, port.NotifyCompletionReceivedAdmin, m, params); err != nil {
		h.logger.Error("Completion admin notification failed", "member_id", m.ID, "error", err)
	}
}
