package port

import (
	"context"

	"github.com/opencouncil/membership/internal/domain/entity"
)

// NotificationKind names a notification template.
type NotificationKind string

const (
	NotifySubmissionReceived NotificationKind = "submission_received"
	NotifyCompletionReceived NotificationKind = "completion_received"
	NotifyApprovalProgressed NotificationKind = "approval_progressed"
	NotifyRejected           NotificationKind = "rejected"
	NotifyPaymentLink        NotificationKind = "payment_link"
	NotifyWelcome            NotificationKind = "welcome"

	// NotifyCompletionReceivedAdmin alerts the membership office that an
	// application entered review; it is delivered to the configured admin
	// address, not the member's contact.
	NotifyCompletionReceivedAdmin NotificationKind = "completion_received_admin"
)

// Notifier is the fire-and-forget notification collaborator. Handlers invoke
// it after a successful state mutation; errors are logged by the caller and
// never fail the operation.
type Notifier interface {
	Send(ctx context.Context, kind NotificationKind, m *entity.Member, params map[string]string) error
}

// MailGateway delivers a rendered message to a recipient. The notification
// service renders templates; the gateway only transports.
type MailGateway interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewIdentityUser is the input for provisioning an identity-provider account.
type NewIdentityUser struct {
	Email     string
	FirstName string
	LastName  string
}

// ProvisionedUser is the identity provider's response: the external account
// ID and the generated one-time credential forwarded into the welcome
// notification.
type ProvisionedUser struct {
	ExternalID        string
	TemporaryPassword string
}

// IdentityProvider provisions external accounts for primary users on
// activation. Failures propagate as workflow.ErrExternalDependency, distinct
// from persistence errors.
type IdentityProvider interface {
	CreateUser(ctx context.Context, u NewIdentityUser) (*ProvisionedUser, error)
}
