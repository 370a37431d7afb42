package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
	"github.com/opencouncil/membership/pkg/utils"
)

// SubmissionHandler creates the application on Phase1 submission. Creation is
// unconditional: no validator chain runs, and the status is fixed to the
// configured initial pending value regardless of caller input.
type SubmissionHandler struct {
	members  port.MemberRepository
	notifier port.Notifier
	cfg      Config
	logger   Logger
}

// NewSubmissionHandler creates the Phase1 handler.
func NewSubmissionHandler(members port.MemberRepository, notifier port.Notifier, cfg Config, logger Logger) *SubmissionHandler {
	return &SubmissionHandler{members: members, notifier: notifier, cfg: cfg, logger: logger}
}

func (h *SubmissionHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhaseSubmission {
		return false
	}
	_, ok := wc.Payload.(*workflow.SubmissionPayload)
	return ok
}

func (h *SubmissionHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	payload := wc.Payload.(*workflow.SubmissionPayload)

	if payload.OrganisationInfo.Name == "" {
		return nil, fmt.Errorf("%w: organisation name is required", workflow.ErrValidationFailure)
	}
	if !payload.Consent.TermsAccepted {
		return nil, fmt.Errorf("%w: terms must be accepted", workflow.ErrValidationFailure)
	}

	now := time.Now().UTC()
	m := &entity.Member{
		ID:                uuid.NewString(),
		ApplicationNumber: newApplicationNumber(now),
		WorkflowType:      entity.WorkflowTypeMembership,
		Status:            h.cfg.InitialStatus,
		OrganisationInfo:  payload.OrganisationInfo,
		Consent:           payload.Consent,
		PaymentStatus:     entity.PaymentStatusPending,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if m.Consent.AcceptedAt == nil {
		m.Consent.AcceptedAt = &now
	}

	for _, u := range payload.Users {
		if u.Email != "" {
			if err := utils.ValidateEmail(u.Email); err != nil {
				return nil, fmt.Errorf("%w: %v", workflow.ErrValidationFailure, err)
			}
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		m.Users = append(m.Users, u)
	}
	// A single submitted user is the primary by default.
	if len(m.Users) == 1 && !m.Users[0].Primary {
		m.Users[0].Primary = true
	}

	if err := h.members.Create(ctx, m); err != nil {
		return nil, err
	}

	h.notify(ctx, m)

	h.logger.Info("Application submitted",
		"member_id", m.ID,
		"application_number", m.ApplicationNumber)

	return &workflow.Result{
		Member:  m,
		Phase:   workflow.PhaseSubmission,
		Message: fmt.Sprintf("application %s submitted", m.ApplicationNumber),
	}, nil
}

func (h *SubmissionHandler) notify(ctx context.Context, m *entity.Member) {
	err := h.notifier.Send(ctx, port.NotifySubmissionReceived, m, map[string]string{
		"applicationNumber": m.ApplicationNumber,
	})
	if err != nil {
		h.logger.Error("Submission notification failed", "member_id", m.ID, "error", err)
	}
}

// newApplicationNumber builds a human-readable application number. Uniqueness
// is backed by the unique index on applicationNumber.
func newApplicationNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("APP-%d-%s", now.Year(), suffix)
}
