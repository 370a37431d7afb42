package container

import (
	"context"
	"fmt"

	"github.com/opencouncil/membership/internal/application/handler"
	"github.com/opencouncil/membership/internal/application/notification"
	"github.com/opencouncil/membership/internal/application/orchestrator"
	"github.com/opencouncil/membership/internal/application/validation"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
	"github.com/opencouncil/membership/internal/infrastructure/external/identity"
	"github.com/opencouncil/membership/internal/infrastructure/external/mailgateway"
	"github.com/opencouncil/membership/internal/infrastructure/persistence/mongodb"
)

// initDatabase connects to MongoDB, creates indexes, builds the repositories
// and seeds the transition ladder when bootstrap seeding is enabled.
func (c *Container) initDatabase(ctx context.Context) error {
	db, err := mongodb.Connect(ctx, c.config.Mongo.URI, c.config.Mongo.Database, c.config.Mongo.ConnectTimeout)
	if err != nil {
		return err
	}

	if err := db.Migrate(ctx); err != nil {
		closeErr := db.Close(context.Background())
		if closeErr != nil {
			c.logger.Error("Failed to close database after migration error")
		}
		return err
	}

	c.db = db
	c.repositories = &RepositoryBundle{
		Members:     mongodb.NewMemberRepo(db, c.logger),
		Transitions: mongodb.NewTransitionRepo(db, c.logger),
	}

	if c.config.Workflow.SeedTransitions {
		rows := defaultTransitions(c.config.Workflow.Type)
		if err := c.repositories.Transitions.Seed(ctx, rows); err != nil {
			return fmt.Errorf("seed transition table: %w", err)
		}
	}

	return nil
}

// initExternalClients builds the identity provider and mail gateway clients.
func (c *Container) initExternalClients() {
	c.identity = identity.NewClient(
		c.config.Identity.BaseURL,
		c.config.Identity.APIKey,
		c.config.Identity.Timeout,
		c.logger,
	)
	c.mail = mailgateway.NewClient(
		c.config.Mail.BaseURL,
		c.config.Mail.APIKey,
		c.config.Mail.Sender,
		c.config.Mail.Timeout,
		c.logger,
	)
}

// initNotification builds the template-rendering notification service.
func (c *Container) initNotification() error {
	svc, err := notification.NewService(c.mail, c.config.Mail.AdminEmail, &zapLoggerAdapter{logger: c.logger})
	if err != nil {
		return err
	}
	c.notifier = svc
	return nil
}

// initOrchestrator wires the validator chain, the phase handlers and the
// orchestrator facade.
func (c *Container) initOrchestrator() {
	appLogger := &zapLoggerAdapter{logger: c.logger}

	handlerCfg := handler.Config{
		Quorum:             c.config.Workflow.CommitteeQuorum,
		InitialStatus:      c.config.Workflow.InitialStatus,
		AllowedUserCount:   c.config.Workflow.AllowedUserCount,
		MembershipValidity: c.config.Workflow.MembershipValidity,
		RejectionStages:    c.config.Workflow.RejectionStages,
	}

	chain := validation.NewChain(
		validation.NewTransitionExistsValidator(c.repositories.Transitions),
		validation.NewSequentialOrderValidator(c.repositories.Transitions),
		validation.NewApprovalOrderValidator(),
	)

	c.workflows = orchestrator.New(
		c.repositories.Members,
		c.repositories.Transitions,
		handler.NewSubmissionHandler(c.repositories.Members, c.notifier, handlerCfg, appLogger),
		handler.NewCompletionHandler(c.repositories.Members, c.repositories.Transitions, c.notifier, appLogger),
		handler.NewUpdateHandler(c.repositories.Members, appLogger),
		handler.NewApprovalHandler(c.repositories.Members, chain, c.notifier, handlerCfg, appLogger),
		handler.NewRejectionHandler(c.repositories.Members, c.repositories.Transitions, c.notifier, handlerCfg, appLogger),
		handler.NewPaymentHandler(c.repositories.Members, c.identity, c.notifier, handlerCfg, appLogger),
		appLogger,
	)
}

// defaultTransitions is the bootstrap membership onboarding ladder. In
// production deployments master data owns these rows; the seed only fills an
// empty table so a fresh environment is usable immediately.
func defaultTransitions(workflowType string) []entity.WorkflowTransition {
	return []entity.WorkflowTransition{
		{
			WorkflowType:  workflowType,
			CurrentStatus: entity.StatusPendingCompletion,
			NextStatus:    entity.StatusPendingCommitteeApproval,
			Phase:         workflow.PhaseCompletion.String(),
			ApprovalStage: entity.StageCompletion,
			Order:         0,
		},
		{
			WorkflowType:  workflowType,
			CurrentStatus: entity.StatusPendingCommitteeApproval,
			NextStatus:    entity.StatusPendingCEOApproval,
			Phase:         workflow.PhaseApproval.String(),
			ApprovalStage: entity.StageCommittee,
			Order:         1,
		},
		{
			WorkflowType:  workflowType,
			CurrentStatus: entity.StatusPendingCEOApproval,
			NextStatus:    entity.StatusApprovedPendingPayment,
			Phase:         workflow.PhaseApproval.String(),
			ApprovalStage: entity.StageCEO,
			Order:         2,
		},
		{
			WorkflowType:  workflowType,
			CurrentStatus: entity.StatusApprovedPendingPayment,
			NextStatus:    entity.StatusActive,
			Phase:         workflow.PhasePayment.String(),
			ApprovalStage: entity.StagePayment,
			Order:         3,
		},
	}
}
