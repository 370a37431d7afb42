package workflow

import (
	"time"

	"github.com/opencouncil/membership/internal/domain/entity"
)

// SubmissionPayload is the Phase1 input: the initial application. Status is
// never caller-supplied; the handler fixes it to the configured initial
// pending value.
type SubmissionPayload struct {
	OrganisationInfo entity.OrganisationInfo `json:"organisationInfo"`
	Consent          entity.Consent          `json:"consent"`
	Users            []entity.MemberUser     `json:"users,omitempty"`
}

// CompletionPayload is the Phase2 input. All fields are patches: a nil patch
// or nil patch field leaves the stored value untouched, so partial payloads
// merge instead of replacing.
type CompletionPayload struct {
	OrganisationInfo *OrganisationInfoPatch `json:"organisationInfo,omitempty"`
	Consent          *ConsentPatch          `json:"consent,omitempty"`
	Users            []entity.MemberUser    `json:"users,omitempty"`
}

// UpdatePayload is the Phase3 input: user records merged by ID into an active
// membership.
type UpdatePayload struct {
	Users []entity.MemberUser `json:"users"`
}

// ApprovalAction is the input of an approval operation.
type ApprovalAction struct {
	ActionBy      string `json:"actionBy"`
	ActionByEmail string `json:"actionByEmail"`
	Comments      string `json:"comments"`
}

// RejectionAction is the input of a rejection operation. Comments is the
// rejection reason and is required.
type RejectionAction struct {
	ActionBy      string `json:"actionBy"`
	ActionByEmail string `json:"actionByEmail"`
	Comments      string `json:"comments"`
}

// PaymentLinkPayload carries the payment link to attach.
type PaymentLinkPayload struct {
	PaymentLink string `json:"paymentLink"`
}

// PaymentCompletePayload reports a finished payment. Completion is legal only
// when PaymentStatus is "paid".
type PaymentCompletePayload struct {
	PaymentStatus string `json:"paymentStatus"`
	Reference     string `json:"reference,omitempty"`
}

// PaymentResetPayload clears the payment link and sets a caller-supplied
// payment status.
type PaymentResetPayload struct {
	PaymentStatus string `json:"paymentStatus"`
}

// OrganisationInfoPatch is a partial OrganisationInfo. Nil fields are
// omitted from the merge.
type OrganisationInfoPatch struct {
	Name          *string       `json:"name,omitempty"`
	TradeLicense  *string       `json:"tradeLicense,omitempty"`
	Sector        *string       `json:"sector,omitempty"`
	Website       *string       `json:"website,omitempty"`
	ContactEmail  *string       `json:"contactEmail,omitempty"`
	ContactPhone  *string       `json:"contactPhone,omitempty"`
	Address       *AddressPatch `json:"address,omitempty"`
	SignatoryName *string       `json:"signatoryName,omitempty"`
	Signature     *string       `json:"signature,omitempty"`
}

// AddressPatch is a partial Address.
type AddressPatch struct {
	Line1   *string `json:"line1,omitempty"`
	Line2   *string `json:"line2,omitempty"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
	POBox   *string `json:"poBox,omitempty"`
}

// ConsentPatch is a partial Consent.
type ConsentPatch struct {
	TermsAccepted   *bool   `json:"termsAccepted,omitempty"`
	DataProcessing  *bool   `json:"dataProcessing,omitempty"`
	MarketingOptIn  *bool   `json:"marketingOptIn,omitempty"`
	AcceptedByEmail *string `json:"acceptedByEmail,omitempty"`
}

// ApplyTo merges the patch into target, leaving omitted fields untouched.
func (p *OrganisationInfoPatch) ApplyTo(target *entity.OrganisationInfo) {
	if p == nil {
		return
	}
	setString(&target.Name, p.Name)
	setString(&target.TradeLicense, p.TradeLicense)
	setString(&target.Sector, p.Sector)
	setString(&target.Website, p.Website)
	setString(&target.ContactEmail, p.ContactEmail)
	setString(&target.ContactPhone, p.ContactPhone)
	setString(&target.SignatoryName, p.SignatoryName)
	setString(&target.Signature, p.Signature)
	p.Address.ApplyTo(&target.Address)
}

// ApplyTo merges the patch into target, leaving omitted fields untouched.
func (p *AddressPatch) ApplyTo(target *entity.Address) {
	if p == nil {
		return
	}
	setString(&target.Line1, p.Line1)
	setString(&target.Line2, p.Line2)
	setString(&target.City, p.City)
	setString(&target.Country, p.Country)
	setString(&target.POBox, p.POBox)
}

// ApplyTo merges the patch into target. Accepting terms stamps AcceptedAt.
func (p *ConsentPatch) ApplyTo(target *entity.Consent, now time.Time) {
	if p == nil {
		return
	}
	if p.TermsAccepted != nil {
		target.TermsAccepted = *p.TermsAccepted
		if *p.TermsAccepted {
			target.AcceptedAt = &now
		}
	}
	if p.DataProcessing != nil {
		target.DataProcessing = *p.DataProcessing
	}
	if p.MarketingOptIn != nil {
		target.MarketingOptIn = *p.MarketingOptIn
	}
	setString(&target.AcceptedByEmail, p.AcceptedByEmail)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
