package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

func submissionPayload() *workflow.SubmissionPayload {
	return &workflow.SubmissionPayload{
		OrganisationInfo: entity.OrganisationInfo{Name: "Harbour Logistics"},
		Consent:          entity.Consent{TermsAccepted: true},
		Users: []entity.MemberUser{
			{FirstName: "Rana", LastName: "Haddad", Email: "rana@harbour.example"},
		},
	}
}

func TestSubmissionHandler_Handle(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *workflow.SubmissionPayload)
		wantErr error
	}{
		{
			name: "valid submission",
		},
		{
			name:    "missing organisation name",
			mutate:  func(p *workflow.SubmissionPayload) { p.OrganisationInfo.Name = "" },
			wantErr: workflow.ErrValidationFailure,
		},
		{
			name:    "terms not accepted",
			mutate:  func(p *workflow.SubmissionPayload) { p.Consent.TermsAccepted = false },
			wantErr: workflow.ErrValidationFailure,
		},
		{
			name:    "malformed user email",
			mutate:  func(p *workflow.SubmissionPayload) { p.Users[0].Email = "not-an-email" },
			wantErr: workflow.ErrValidationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *entity.Member
			members := &mockMemberRepo{
				createFunc: func(ctx context.Context, m *entity.Member) error {
					created = m
					return nil
				},
			}
			notifier := &mockNotifier{}
			h := NewSubmissionHandler(members, notifier, testConfig(), &mockLogger{})

			payload := submissionPayload()
			if tt.mutate != nil {
				tt.mutate(payload)
			}

			result, err := h.Handle(context.Background(), &workflow.Context{
				Phase:   workflow.PhaseSubmission,
				Payload: payload,
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, created, "nothing may be persisted on a refused submission")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, entity.StatusPendingCompletion, created.Status)
			assert.Equal(t, entity.WorkflowTypeMembership, created.WorkflowType)
			assert.NotEmpty(t, created.ID)
			assert.True(t, strings.HasPrefix(created.ApplicationNumber, "APP-"), "application number %q", created.ApplicationNumber)
			assert.Equal(t, int64(1), created.Version)
			assert.Equal(t, entity.PaymentStatusPending, created.PaymentStatus)
			assert.Equal(t, result.Member, created)

			require.Len(t, notifier.sent, 1)
			assert.Equal(t, port.NotifySubmissionReceived, notifier.sent[0].kind)
		})
	}
}

func TestSubmissionHandler_SingleUserBecomesPrimary(t *testing.T) {
	var created *entity.Member
	members := &mockMemberRepo{
		createFunc: func(ctx context.Context, m *entity.Member) error {
			created = m
			return nil
		},
	}
	h := NewSubmissionHandler(members, &mockNotifier{}, testConfig(), &mockLogger{})

	_, err := h.Handle(context.Background(), &workflow.Context{
		Phase:   workflow.PhaseSubmission,
		Payload: submissionPayload(),
	})
	require.NoError(t, err)
	require.Len(t, created.Users, 1)
	assert.True(t, created.Users[0].Primary)
	assert.NotEmpty(t, created.Users[0].ID, "user without an ID gets one assigned")
}

func TestSubmissionHandler_NotificationFailureDoesNotFail(t *testing.T) {
	members := &mockMemberRepo{
		createFunc: func(ctx context.Context, m *entity.Member) error { return nil },
	}
	notifier := &mockNotifier{
		sendFunc: func(ctx context.Context, kind port.NotificationKind, m *entity.Member, params map[string]string) error {
			return errors.New("smtp relay down")
		},
	}
	h := NewSubmissionHandler(members, notifier, testConfig(), &mockLogger{})

	result, err := h.Handle(context.Background(), &workflow.Context{
		Phase:   workflow.PhaseSubmission,
		Payload: submissionPayload(),
	})

	require.NoError(t, err, "notification delivery must never fail the workflow")
	assert.NotNil(t, result)
}

func TestSubmissionHandler_CanHandle(t *testing.T) {
	h := NewSubmissionHandler(&mockMemberRepo{}, &mockNotifier{}, testConfig(), &mockLogger{})

	assert.True(t, h.CanHandle(&workflow.Context{Phase: workflow.PhaseSubmission, Payload: &workflow.SubmissionPayload{}}))
	assert.False(t, h.CanHandle(&workflow.Context{Phase: workflow.PhaseCompletion, Payload: &workflow.SubmissionPayload{}}))
	assert.False(t, h.CanHandle(&workflow.Context{Phase: workflow.PhaseSubmission, Payload: &workflow.UpdatePayload{}}))
}
