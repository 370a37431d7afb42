// Package notification renders and dispatches member-facing messages. The
// service implements port.Notifier; delivery failures are reported to the
// caller, which logs and continues (notifications never gate a workflow
// transition).
package notification

import (
	"context"
	"fmt"

	"github.com/flosch/pongo2/v4"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
)

// Logger is the minimal logging dependency of the notification service.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type messageTemplate struct {
	subject *pongo2.Template
	body    *pongo2.Template
}

// adminKinds are delivered to the configured membership-office address
// instead of the member's contact.
var adminKinds = map[port.NotificationKind]struct{}{
	port.NotifyCompletionReceivedAdmin: {},
}

// Service renders per-kind templates and hands the result to the mail
// gateway.
type Service struct {
	gateway    port.MailGateway
	adminEmail string
	templates  map[port.NotificationKind]messageTemplate
	logger     Logger
}

// NewService compiles every template up front so malformed templates fail at
// startup rather than mid-workflow.
func NewService(gateway port.MailGateway, adminEmail string, logger Logger) (*Service, error) {
	sources := map[port.NotificationKind][2]string{
		port.NotifySubmissionReceived:      {subjectSubmissionReceived, bodySubmissionReceived},
		port.NotifyCompletionReceived:      {subjectCompletionReceived, bodyCompletionReceived},
		port.NotifyCompletionReceivedAdmin: {subjectCompletionReceivedAdmin, bodyCompletionReceivedAdmin},
		port.NotifyApprovalProgressed:      {subjectApprovalProgressed, bodyApprovalProgressed},
		port.NotifyRejected:                {subjectRejected, bodyRejected},
		port.NotifyPaymentLink:             {subjectPaymentLink, bodyPaymentLink},
		port.NotifyWelcome:                 {subjectWelcome, bodyWelcome},
	}

	templates := make(map[port.NotificationKind]messageTemplate, len(sources))
	for kind, pair := range sources {
		subject, err := pongo2.FromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("compile %s subject template: %w", kind, err)
		}
		body, err := pongo2.FromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("compile %s body template: %w", kind, err)
		}
		templates[kind] = messageTemplate{subject: subject, body: body}
	}

	return &Service{gateway: gateway, adminEmail: adminEmail, templates: templates, logger: logger}, nil
}

// Send renders the template for kind and delivers it to the member's primary
// contact, or to the admin address for office-facing kinds.
func (s *Service) Send(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) error {
	tpl, ok := s.templates[kind]
	if !ok {
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	recipient := recipientFor(m)
	if _, admin := adminKinds[kind]; admin {
		recipient = s.adminEmail
	}
	if recipient == "" {
		return fmt.Errorf("member %s has no recipient for %s notification", m.ID, kind)
	}

	tctx := pongo2.Context{
		"member": m,
		"params": params,
	}

	subject, err := tpl.subject.Execute(tctx)
	if err != nil {
		return fmt.Errorf("render %s subject: %w", kind, err)
	}
	body, err := tpl.body.Execute(tctx)
	if err != nil {
		return fmt.Errorf("render %s body: %w", kind, err)
	}

	if err := s.gateway.Send(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("deliver %s notification: %w", kind, err)
	}

	s.logger.Info("Notification sent",
		"kind", string(kind),
		"member_id", m.ID,
		"recipient", recipient)
	return nil
}

func recipientFor(m *entity.Member) string {
	if u := m.PrimaryUser(); u != nil && u.Email != "" {
		return u.Email
	}
	for _, u := range m.Users {
		if u.Email != "" {
			return u.Email
		}
	}
	return ""
}
