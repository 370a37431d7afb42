// Package identity is the HTTP client for the external identity provider
// that hosts member portal accounts.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/opencouncil/membership/internal/application/port"
)

// Client calls the identity provider's user-provisioning API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ port.IdentityProvider = (*Client)(nil)

// NewClient creates an identity provider client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// createUserRequest is the request body for the user-provisioning endpoint.
type createUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// createUserResponse is the provisioning endpoint's response.
type createUserResponse struct {
	ID                string `json:"id"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// CreateUser provisions a portal account for the given user.
// Uses POST /api/v1/users on the configured provider.
func (c *Client) CreateUser(ctx context.Context, u port.NewIdentityUser) (*port.ProvisionedUser, error) {
	body, err := json.Marshal(createUserRequest{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/v1/users"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("Provisioning identity account", zap.String("email", u.Email))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity provider returned status %d: %s",
			resp.StatusCode, string(respBody))
	}

	var out createUserResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("identity provider returned empty account id")
	}

	c.logger.Info("Identity account provisioned",
		zap.String("email", u.Email),
		zap.String("external_id", out.ID))

	return &port.ProvisionedUser{
		ExternalID:        out.ID,
		TemporaryPassword: out.TemporaryPassword,
	}, nil
}
