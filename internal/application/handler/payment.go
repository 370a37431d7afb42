package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
	"github.com/opencouncil/membership/pkg/utils"
)

// PaymentHandler executes the three payment sub-operations: attaching a
// payment link, completing payment (activation), and resetting payment. The
// payload type selects the sub-operation.
//
// Completion persists the activation before provisioning the identity
// account. A provisioning failure is reported as an external-dependency
// error while the membership record stays activated: an accepted,
// documented inconsistency window, retriable out of band, rather than a
// two-phase commit.
type PaymentHandler struct {
	members  port.MemberRepository
	identity port.IdentityProvider
	notifier port.Notifier
	cfg      Config
	logger   Logger
}

// NewPaymentHandler creates the payment handler.
func NewPaymentHandler(members port.MemberRepository, identity port.IdentityProvider, notifier port.Notifier, cfg Config, logger Logger) *PaymentHandler {
	return &PaymentHandler{members: members, identity: identity, notifier: notifier, cfg: cfg, logger: logger}
}

func (h *PaymentHandler) CanHandle(wc *workflow.Context) bool {
	if wc.Phase != workflow.PhasePayment {
		return false
	}
	switch wc.Payload.(type) {
	case *workflow.PaymentLinkPayload, *workflow.PaymentCompletePayload, *workflow.PaymentResetPayload:
		return true
	default:
		return false
	}
}

func (h *PaymentHandler) Handle(ctx context.Context, wc *workflow.Context) (*workflow.Result, error) {
	switch payload := wc.Payload.(type) {
	case *workflow.PaymentLinkPayload:
		return h.addLink(ctx, wc.EntityID, payload)
	case *workflow.PaymentCompletePayload:
		return h.complete(ctx, wc.EntityID, payload)
	case *workflow.PaymentResetPayload:
		return h.reset(ctx, wc.EntityID, payload)
	default:
		return nil, fmt.Errorf("%w: unsupported payment payload", workflow.ErrHandlerRejected)
	}
}

func (h *PaymentHandler) addLink(ctx context.Context, id string, payload *workflow.PaymentLinkPayload) (*workflow.Result, error) {
	if payload.PaymentLink == "" {
		return nil, fmt.Errorf("%w: payment link is required", workflow.ErrValidationFailure)
	}
	if err := utils.ValidateURL(payload.PaymentLink); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrValidationFailure, err)
	}

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m.Status != entity.StatusApprovedPendingPayment {
			return nil, fmt.Errorf("%w: payment link requires status %s, current is %s",
				workflow.ErrInvalidTransition, entity.StatusApprovedPendingPayment, m.Status)
		}

		m.PaymentLink = payload.PaymentLink
		m.PaymentStatus = entity.PaymentStatusLinked
		m.UpdatedAt = time.Now().UTC()

		err = h.members.Update(ctx, m)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		h.sendNotification(ctx, port.NotifyPaymentLink, m, map[string]string{
			"paymentLink": m.PaymentLink,
		})

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhasePayment,
			Message: "payment link attached",
		}, nil
	}
}

func (h *PaymentHandler) complete(ctx context.Context, id string, payload *workflow.PaymentCompletePayload) (*workflow.Result, error) {
	if payload.PaymentStatus != entity.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment completion requires paymentStatus %q, got %q",
			workflow.ErrValidationFailure, entity.PaymentStatusPaid, payload.PaymentStatus)
	}

	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m.Status != entity.StatusApprovedPendingPayment {
			return nil, fmt.Errorf("%w: payment completion requires status %s, current is %s",
				workflow.ErrInvalidTransition, entity.StatusApprovedPendingPayment, m.Status)
		}

		primary := m.PrimaryUser()
		if primary == nil || primary.Email == "" {
			return nil, fmt.Errorf("%w: membership has no primary user to provision", workflow.ErrValidationFailure)
		}

		now := time.Now().UTC()
		validUntil := now.Add(h.cfg.MembershipValidity)
		m.Status = entity.StatusActive
		m.PaymentStatus = entity.PaymentStatusPaid
		m.ValidUntil = &validUntil
		m.AllowedUserCount = h.cfg.AllowedUserCount
		m.ApprovalDate = &now
		m.UpdatedAt = now

		err = h.members.Update(ctx, m)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		// Activation is committed. Identity provisioning is downstream of
		// the write: its failure surfaces distinctly and does not roll the
		// activation back.
		account, err := h.identity.CreateUser(ctx, port.NewIdentityUser{
			Email:     primary.Email,
			FirstName: primary.FirstName,
			LastName:  primary.LastName,
		})
		if err != nil {
			h.logger.Error("Identity provisioning failed after activation",
				"member_id", m.ID,
				"email", primary.Email,
				"error", err)
			return nil, fmt.Errorf("%w: membership activated but identity provisioning failed: %v",
				workflow.ErrExternalDependency, err)
		}

		h.sendNotification(ctx, port.NotifyWelcome, m, map[string]string{
			"username":          primary.Email,
			"temporaryPassword": account.TemporaryPassword,
			"validUntil":        validUntil.Format("2006-01-02"),
		})

		h.logger.Info("Membership activated",
			"member_id", m.ID,
			"valid_until", validUntil.Format(time.RFC3339),
			"identity_id", account.ExternalID)

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhasePayment,
			Message: fmt.Sprintf("membership %s activated until %s", m.ApplicationNumber, validUntil.Format("2006-01-02")),
		}, nil
	}
}

func (h *PaymentHandler) reset(ctx context.Context, id string, payload *workflow.PaymentResetPayload) (*workflow.Result, error) {
	for attempt := 0; ; attempt++ {
		m, err := h.members.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		m.PaymentLink = ""
		m.PaymentStatus = payload.PaymentStatus
		m.UpdatedAt = time.Now().UTC()

		err = h.members.Update(ctx, m)
		if errors.Is(err, workflow.ErrConflict) && attempt < conflictRetries {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &workflow.Result{
			Member:  m,
			Phase:   workflow.PhasePayment,
			Message: "payment reset",
		}, nil
	}
}

func (h *PaymentHandler) sendNotification(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) {
	if err := h.notifier.Send(ctx, kind, m, params); err != nil {
		h.logger.Error("Payment notification failed",
			"member_id", m.ID,
			"kind", string(kind),
			"error", err)
	}
}
