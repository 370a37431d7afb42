package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/application/validation"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// ApprovalHandler records an approval action. The full validator chain runs
// first; the committee stage only advances once the cumulative count of
// approvals and rejections reaches the quorum, every other stage advances
// unconditionally. Status change and history append happen in one atomic
// conditional update; a version conflict restarts the read-validate-write
// cycle.
type ApprovalHandler struct {
	members  port.MemberRepository
	chain    *validation.Chain
	notifier port.Notifier
	cfg      Config
	logger   Logger
}

// NewApprovalHandler creates the approval handler.
func NewApprovalHandler(members port.MemberRepository, chain *validation.Chain, notifier port.Notifier, cfg Config, logger Logger) *ApprovalHandler {
	return &ApprovalHandler{members: members, chain: chain, notifier: notifier, cfg: cfg, logger: logger}
}

func (h *ApprovalHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhaseApproval {
		return false
	}
	action, ok := wc.Payload.(*workflow.ApprovalAction)
	return ok && action.ActionByEmail != ""
}

func (h *ApprovalHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	action := wc.Payload.(*workflow.ApprovalAction)

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, wc.EntityID)
		if err != nil {
			return nil, err
		}

		vc := &workflow.ValidationContext{
			Member:           m,
			CurrentStatus:    m.Status,
			CurrentUserEmail: action.ActionByEmail,
		}
		if err := h.chain.Validate(ctx, vc); err != nil {
			return nil, err
		}

		transition := vc.Transition
		entry := entity.ApprovalEntry{
			ApprovalStage: transition.ApprovalStage,
			Order:         transition.Order,
			ApprovedBy:    action.ActionBy,
			ApproverEmail: action.ActionByEmail,
			Comments:      action.Comments,
			ApprovedAt:    time.Now().UTC(),
		}

		nextStatus := transition.NextStatus
		if transition.ApprovalStage == entity.StageCommittee {
			// Sub-quorum committee votes are recorded without advancing.
			if m.ActionsAtOrder(transition.Order)+1 < h.cfg.Quorum {
				nextStatus = m.Status
			}
		}

		err = h.members.AppendApproval(ctx, m.ID, m.Version, nextStatus, entry)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		statusChanged := nextStatus != m.Status
		m.ApprovalHistory = append(m.ApprovalHistory, entry)
		m.Status = nextStatus
		m.Version++

		if statusChanged {
			h.notify(ctx, m, action.Comments)
		}

		h.logger.Info("Approval recorded",
			"member_id", m.ID,
			"stage", entry.ApprovalStage,
			"order", entry.Order,
			"status", m.Status,
			"advanced", statusChanged)

		message := fmt.Sprintf("approval recorded at stage %s", entry.ApprovalStage)
		if statusChanged {
			message = fmt.Sprintf("approval recorded, application advanced to %s", m.Status)
		}

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhaseApproval,
			Message: message,
		}, nil
	}
}

func (h *ApprovalHandler) notify(ctx context.Context, m *entity.Member, comments string) {
	err := h.notifier.Send(ctx, port.NotifyApprovalProgressed, m, map[string]string{
		"status":   m.Status,
		"comments": comments,
	})
	if err != nil {
		h.logger.Error("Approval notification failed", "member_id", m.ID, "error", err)
	}
}
