package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencouncil/membership/internal/application/orchestrator"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflows *orchestrator.Orchestrator
	pinger    Pinger
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(workflows *orchestrator.Orchestrator, pinger Pinger, logger Logger) *Handlers {
	return &Handlers{
		workflows: workflows,
		pinger:    pinger,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// ListMembersRequest represents query parameters for listing members
type ListMembersRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbStatus := "up"
	status := http.StatusOK
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check database ping failed", "error", err)
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data: HealthResponse{
			Status:    "running",
			Database:  dbStatus,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SubmitApplication handles POST /api/members
func (h *Handlers) SubmitApplication(c *gin.Context) {
	var payload workflow.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ExecutePhase1(c.Request.Context(), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result.Member})
}

// ListMembers handles GET /api/members
func (h *Handlers) ListMembers(c *gin.Context) {
	var req ListMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	members, err := h.workflows.ListMembers(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: members})
}

// GetMember handles GET /api/members/:id
func (h *Handlers) GetMember(c *gin.Context) {
	m, err := h.workflows.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: m})
}

// CompleteApplication handles POST /api/members/:id/complete
func (h *Handlers) CompleteApplication(c *gin.Context) {
	var payload workflow.CompletionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ExecutePhase2(c.Request.Context(), c.Param("id"), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// UpdateUsers handles POST /api/members/:id/users
func (h *Handlers) UpdateUsers(c *gin.Context) {
	var payload workflow.UpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ExecutePhase3(c.Request.Context(), c.Param("id"), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// Approve handles POST /api/members/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	var action workflow.ApprovalAction
	if err := c.ShouldBindJSON(&action); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ExecuteApproval(c.Request.Context(), c.Param("id"), &action)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// Reject handles POST /api/members/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var action workflow.RejectionAction
	if err := c.ShouldBindJSON(&action); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ExecuteRejection(c.Request.Context(), c.Param("id"), &action)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// AddPaymentLink handles POST /api/members/:id/payment-link
func (h *Handlers) AddPaymentLink(c *gin.Context) {
	var payload workflow.PaymentLinkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.AddPaymentLink(c.Request.Context(), c.Param("id"), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// CompletePayment handles POST /api/members/:id/payment/complete
func (h *Handlers) CompletePayment(c *gin.Context) {
	var payload workflow.PaymentCompletePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.CompletePayment(c.Request.Context(), c.Param("id"), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

// ResetPayment handles POST /api/members/:id/payment/reset
func (h *Handlers) ResetPayment(c *gin.Context) {
	var payload workflow.PaymentResetPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.workflows.ResetPayment(c.Request.Context(), c.Param("id"), &payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Member})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request body", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body: " + err.Error(),
	})
}

// fail maps workflow error categories to HTTP status codes.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrValidationFailure):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrConflict),
		errors.Is(err, workflow.ErrHandlerRejected):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrExternalDependency):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
