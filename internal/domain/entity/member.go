package entity

import "time"

// Member is the workflow subject: a membership application that becomes an
// active member once payment completes. MemberID and ApplicationNumber are
// assigned at creation and never reassigned. Status is mutated only through
// workflow transitions; Version backs the optimistic-concurrency check every
// mutating storage operation performs.
type Member struct {
	ID                string           `bson:"_id" json:"memberId"`
	ApplicationNumber string           `bson:"applicationNumber" json:"applicationNumber"`
	WorkflowType      string           `bson:"workflowType" json:"workflowType"`
	Status            string           `bson:"status" json:"status"`
	OrganisationInfo  OrganisationInfo `bson:"organisationInfo" json:"organisationInfo"`
	Consent           Consent          `bson:"consent" json:"consent"`
	Users             []MemberUser     `bson:"users" json:"users"`

	ApprovalHistory  []ApprovalEntry  `bson:"approvalHistory" json:"approvalHistory"`
	RejectionHistory []RejectionEntry `bson:"rejectionHistory" json:"rejectionHistory"`

	PaymentStatus    string     `bson:"paymentStatus" json:"paymentStatus"`
	PaymentLink      string     `bson:"paymentLink,omitempty" json:"paymentLink,omitempty"`
	ValidUntil       *time.Time `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
	AllowedUserCount int        `bson:"allowedUserCount,omitempty" json:"allowedUserCount,omitempty"`
	ApprovalDate     *time.Time `bson:"approvalDate,omitempty" json:"approvalDate,omitempty"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OrganisationInfo holds the applying organisation's profile. Phase2
// completion merges into it field by field; omitted fields keep their value.
type OrganisationInfo struct {
	Name          string  `bson:"name" json:"name"`
	TradeLicense  string  `bson:"tradeLicense,omitempty" json:"tradeLicense,omitempty"`
	Sector        string  `bson:"sector,omitempty" json:"sector,omitempty"`
	Website       string  `bson:"website,omitempty" json:"website,omitempty"`
	ContactEmail  string  `bson:"contactEmail,omitempty" json:"contactEmail,omitempty"`
	ContactPhone  string  `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	Address       Address `bson:"address" json:"address"`
	SignatoryName string  `bson:"signatoryName,omitempty" json:"signatoryName,omitempty"`
	Signature     string  `bson:"signature,omitempty" json:"signature,omitempty"`
}

// Address is the organisation's registered address.
type Address struct {
	Line1   string `bson:"line1,omitempty" json:"line1,omitempty"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	POBox   string `bson:"poBox,omitempty" json:"poBox,omitempty"`
}

// Consent captures the applicant's agreement to terms and data processing.
type Consent struct {
	TermsAccepted   bool       `bson:"termsAccepted" json:"termsAccepted"`
	DataProcessing  bool       `bson:"dataProcessing" json:"dataProcessing"`
	MarketingOptIn  bool       `bson:"marketingOptIn" json:"marketingOptIn"`
	AcceptedAt      *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	AcceptedByEmail string     `bson:"acceptedByEmail,omitempty" json:"acceptedByEmail,omitempty"`
}

// MemberUser is a person attached to the membership. The first user marked
// primary receives the identity-provider account on activation.
type MemberUser struct {
	ID        string `bson:"id" json:"id"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	Role      string `bson:"role,omitempty" json:"role,omitempty"`
	Primary   bool   `bson:"primary" json:"primary"`
}

// PrimaryUser returns the primary user, or nil if none is set.
func (m *Member) PrimaryUser() *MemberUser {
	for i := range m.Users {
		if m.Users[i].Primary {
			return &m.Users[i]
		}
	}
	return nil
}

// UpsertUser merges a user by ID: an existing entry is replaced in place,
// a new one is appended.
func (m *Member) UpsertUser(u MemberUser) {
	for i := range m.Users {
		if m.Users[i].ID == u.ID {
			m.Users[i] = u
			return
		}
	}
	m.Users = append(m.Users, u)
}

// ActionsAtOrder counts approval and rejection history entries recorded at
// the given order. The committee stage compares this against the quorum.
func (m *Member) ActionsAtOrder(order int) int {
	count := 0
	for _, e := range m.ApprovalHistory {
		if e.Order == order {
			count++
		}
	}
	for _, e := range m.RejectionHistory {
		if e.Order == order {
			count++
		}
	}
	return count
}

// HasActionAtOrder reports whether at least one approval or rejection entry
// exists at the given order.
func (m *Member) HasActionAtOrder(order int) bool {
	return m.ActionsAtOrder(order) > 0
}

// HasActedAtOrder reports whether the given actor already approved or gave
// feedback at the given order.
func (m *Member) HasActedAtOrder(order int, email string) bool {
	for _, e := range m.ApprovalHistory {
		if e.Order == order && e.ApproverEmail == email {
			return true
		}
	}
	for _, e := range m.RejectionHistory {
		if e.Order == order && e.RejectorEmail == email {
			return true
		}
	}
	return false
}

// HasApprovalAtOrder reports whether an approval entry exists at the given
// order. Non-committee stages use this to refuse re-approving a completed
// stage.
func (m *Member) HasApprovalAtOrder(order int) bool {
	for _, e := range m.ApprovalHistory {
		if e.Order == order {
			return true
		}
	}
	return false
}
