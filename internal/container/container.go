// Package container provides dependency injection and lifecycle management
// for the membership onboarding engine following Clean Architecture
// principles.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/opencouncil/membership/internal/application/notification"
	"github.com/opencouncil/membership/internal/application/orchestrator"
	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/config"
	"github.com/opencouncil/membership/internal/infrastructure/persistence/mongodb"
)

// Container manages all application dependencies and lifecycle.
// Components initialize in dependency order and tear down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *mongodb.Database
	repositories *RepositoryBundle

	// Infrastructure - External
	identity port.IdentityProvider
	mail     port.MailGateway

	// Application
	notifier  *notification.Service
	workflows *orchestrator.Orchestrator

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Members     port.MemberRepository
	Transitions port.TransitionRepository
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, repositories and transition-table bootstrap
// 2. External clients (identity provider, mail gateway)
// 3. Notification service
// 4. Phase handlers and orchestrator
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database, repositories and master data
	if err := c.initDatabase(c.ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize external clients
	c.initExternalClients()
	c.logger.Info("External clients initialized")

	// Step 3: Initialize notification service
	if err := c.initNotification(); err != nil {
		return fmt.Errorf("failed to initialize notification service: %w", err)
	}
	c.logger.Info("Notification service initialized")

	// Step 4: Initialize handlers and orchestrator
	c.initOrchestrator()
	c.logger.Info("Workflow orchestrator initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Orchestrator, notification service and external clients hold no
	// resources that need explicit cleanup.

	// Close database last.
	if c.db != nil {
		shutdownCtx := context.Background()
		if err := c.db.Close(shutdownCtx); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Orchestrator returns the workflow orchestrator.
func (c *Container) Orchestrator() *orchestrator.Orchestrator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workflows
}

// Database returns the database handle for connectivity checks.
func (c *Container) Database() *mongodb.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db != nil {
		if err := c.db.Ping(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	if c.workflows != nil {
		status.Components["orchestrator"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["orchestrator"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the application layer.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
