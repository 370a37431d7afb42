package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// RejectionHandler records a rejection action. Rejection branches off the
// approval ladder: the stage and order come from the configured rejection
// stage map, not the transition table. At the committee stage a rejection is
// feedback that counts toward the same quorum as approvals; at every other
// stage it is hard and sets the status to rejected unconditionally.
type RejectionHandler struct {
	members     port.MemberRepository
	transitions port.TransitionRepository
	notifier    port.Notifier
	cfg         Config
	logger      Logger
}

// NewRejectionHandler creates the rejection handler.
func NewRejectionHandler(members port.MemberRepository, transitions port.TransitionRepository, notifier port.Notifier, cfg Config, logger Logger) *RejectionHandler {
	return &RejectionHandler{members: members, transitions: transitions, notifier: notifier, cfg: cfg, logger: logger}
}

func (h *RejectionHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhaseRejection {
		return false
	}
	action, ok := wc.Payload.(*workflow.RejectionAction)
	return ok && action.ActionByEmail != ""
}

func (h *RejectionHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	action := wc.Payload.(*workflow.RejectionAction)

	// A rejection without a reason is refused before storage is touched.
	if action.Comments == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", workflow.ErrValidationFailure)
	}

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, wc.EntityID)
		if err != nil {
			return nil, err
		}
		if entity.IsTerminalStatus(m.Status) {
			return nil, fmt.Errorf("%w: membership %s is %s and cannot be rejected",
				workflow.ErrInvalidTransition, m.ID, m.Status)
		}

		stage, ok := h.cfg.RejectionStages[m.Status]
		if !ok {
			return nil, fmt.Errorf("%w: no rejection stage configured for status %s",
				workflow.ErrInvalidTransition, m.Status)
		}
		if m.HasActedAtOrder(stage.Order, action.ActionByEmail) {
			return nil, fmt.Errorf("%w: %s already acted at stage %d",
				workflow.ErrInvalidTransition, action.ActionByEmail, stage.Order)
		}
		for prior := 1; prior < stage.Order; prior++ {
			if !m.HasActionAtOrder(prior) {
				return nil, fmt.Errorf("%w: rejection at stage %d cannot proceed: stage %d has no recorded action",
					workflow.ErrInvalidTransition, stage.Order, prior)
			}
		}

		entry := entity.RejectionEntry{
			RejectionStage: stage.Stage,
			Order:          stage.Order,
			RejectedBy:     action.ActionBy,
			RejectorEmail:  action.ActionByEmail,
			Reason:         action.Comments,
			RejectedAt:     time.Now().UTC(),
		}

		nextStatus, err := h.nextStatus(ctx, m, stage)
		if err != nil {
			return nil, err
		}

		err = h.members.AppendRejection(ctx, m.ID, m.Version, nextStatus, entry)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		statusChanged := nextStatus != m.Status
		m.RejectionHistory = append(m.RejectionHistory, entry)
		m.Status = nextStatus
		m.Version++

		if statusChanged {
			h.notify(ctx, m, action.Comments)
		}

		h.logger.Info("Rejection recorded",
			"member_id", m.ID,
			"stage", entry.RejectionStage,
			"order", entry.Order,
			"status", m.Status)

		message := fmt.Sprintf("rejection feedback recorded at stage %s", entry.RejectionStage)
		if m.Status == entity.StatusRejected {
			message = "application rejected"
		} else if statusChanged {
			message = fmt.Sprintf("feedback recorded, application advanced to %s", m.Status)
		}

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhaseRejection,
			Message: message,
		}, nil
	}
}

// nextStatus decides where the rejection leaves the member. Committee
// rejections follow the approval ladder's quorum arithmetic; every other
// stage rejects hard.
func (h *RejectionHandler) nextStatus(ctx context.Context, m *entity.Member, stage entity.RejectionStage) (string, error) {
	if stage.Stage != entity.StageCommittee {
		return entity.StatusRejected, nil
	}

	if m.ActionsAtOrder(stage.Order)+1 < h.cfg.Quorum {
		return m.Status, nil
	}

	row, err := h.transitions.GetTransition(ctx, m.WorkflowType, m.Status)
	if err != nil {
		return "", fmt.Errorf("%w: transition lookup: %v", workflow.ErrPersistence, err)
	}
	if row == nil {
		return "", fmt.Errorf("%w: no valid transition for status %s", workflow.ErrInvalidTransition, m.Status)
	}
	return row.NextStatus, nil
}

func (h *RejectionHandler) notify(ctx context.Context, m *entity.Member, reason string) {
	kind := port.NotifyApprovalProgressed
	if m.Status == entity.StatusRejected {
		kind = port.NotifyRejected
	}
	err := h.notifier.Send(ctx, kind, m, map[string]string{
		"status": m.Status,
		"reason": reason,
	})
	if err != nil {
		h.logger.Error("Rejection notification failed", "member_id", m.ID, "error", err)
	}
}
