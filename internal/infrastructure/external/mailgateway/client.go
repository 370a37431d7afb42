// Package mailgateway is the HTTP client for the council's outbound mail
// relay. The notification service renders content; this client only delivers.
package mailgateway

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

// Client posts rendered messages to the mail relay.
type Client struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ port.MailGateway = (*Client)(nil)

// NewClient creates a mail gateway client. sender is the From address stamped
// on every message.
func NewClient(baseURL, apiKey, sender string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sender:     sender,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// sendRequest is the relay's message payload.
type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers one message. Uses POST /api/v1/messages on the relay.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    c.sender,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := c.baseURL + "/api/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail gateway returned status %d: %s",
			resp.StatusCode, string(respBody))
	}

	c.logger.Debug("Message delivered", zap.String("to", to), zap.String("subject", subject))
	return nil
}
