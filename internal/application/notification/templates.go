package notification

// Subject and body templates per notification kind. Templates are pongo2
// (Jinja-style) and receive the member document plus any call-site params
// under "params".

const subjectSubmissionReceived = `Application {{ member.ApplicationNumber }} received`

const bodySubmissionReceived = `Dear {{ member.OrganisationInfo.Name }},

We have received your membership application {{ member.ApplicationNumber }}.
Please complete the remaining details to move it into review.

Regards,
Membership Office`

const subjectCompletionReceived = `Application {{ member.ApplicationNumber }} is under review`

const bodyCompletionReceived = `Dear {{ member.OrganisationInfo.Name }},

Your application {{ member.ApplicationNumber }} is complete and has entered
the review process. We will notify you as it progresses.

Regards,
Membership Office`

const subjectCompletionReceivedAdmin = `Application {{ member.ApplicationNumber }} awaits committee review`

const bodyCompletionReceivedAdmin = `Application {{ member.ApplicationNumber }} from {{ member.OrganisationInfo.Name }}
is complete and has entered review ({{ member.Status }}).

Please schedule it for the next committee session.`

const subjectApprovalProgressed = `Application {{ member.ApplicationNumber }}: review update`

const bodyApprovalProgressed = `Dear {{ member.OrganisationInfo.Name }},

Your application {{ member.ApplicationNumber }} has progressed to the next
review stage ({{ member.Status }}).
{% if params.comments %}
Reviewer comments: {{ params.comments }}
{% endif %}
Regards,
Membership Office`

const subjectRejected = `Application {{ member.ApplicationNumber }}: decision`

const bodyRejected = `Dear {{ member.OrganisationInfo.Name }},

Your application {{ member.ApplicationNumber }} was not approved.

Reason: {{ params.reason }}

You may contact the membership office for further details.

Regards,
Membership Office`

const subjectPaymentLink = `Application {{ member.ApplicationNumber }}: payment required`

const bodyPaymentLink = `Dear {{ member.OrganisationInfo.Name }},

Your application {{ member.ApplicationNumber }} has been approved. Please
complete the membership payment using the link below:

{{ params.paymentLink }}

Regards,
Membership Office`

const subjectWelcome = `Welcome to the council, {{ member.OrganisationInfo.Name }}`

const bodyWelcome = `Dear {{ member.OrganisationInfo.Name }},

Your membership is now active and valid until {{ params.validUntil }}.

An account has been created for your primary contact.
Username: {{ params.username }}
Temporary password: {{ params.temporaryPassword }}

Please sign in and change the password at first use.

Regards,
Membership Office`
