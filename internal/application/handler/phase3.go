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

// UpdateHandler applies post-approval user updates on Phase3. It is legal
// only for fully active memberships; any other status yields a typed failure
// with nothing mutated. Users merge by ID and status is never touched.
type UpdateHandler struct {
	members port.MemberRepository
	logger  Logger
}

// NewUpdateHandler creates the Phase3 handler.
func NewUpdateHandler(members port.MemberRepository, logger Logger) *UpdateHandler {
	return &UpdateHandler{members: members, logger: logger}
}

func (h *UpdateHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhaseUpdate {
		return false
	}
	_, ok := wc.Payload.(*workflow.UpdatePayload)
	return ok
}

func (h *UpdateHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	payload := wc.Payload.(*workflow.UpdatePayload)
	if len(payload.Users) == 0 {
		return nil, fmt.Errorf("%w: no users to update", workflow.ErrValidationFailure)
	}

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, wc.EntityID)
		if err != nil {
			return nil, err
		}
		if m.Status != entity.StatusActive {
			return nil, fmt.Errorf("%w: post-approval update requires an active membership, status is %s",
				workflow.ErrInvalidTransition, m.Status)
		}

		for _, u := range payload.Users {
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			m.UpsertUser(u)
		}
		m.UpdatedAt = time.Now().UTC()

		err = h.members.Update(ctx, m)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		h.logger.Info("Member users updated",
			"member_id", m.ID,
			"user_count", len(m.Users))

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhaseUpdate,
			Message: fmt.Sprintf("membership %s users updated", m.ApplicationNumber),
		}, nil
	}
}
