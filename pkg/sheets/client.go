// Package sheets is the client for the spreadsheet-backed webhook that stores
// finalized registrations (a Google Apps Script endpoint in production).
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ibgp-events/backend/internal/models"
)

// Client posts registrations to the webhook endpoint. The endpoint URL is
// injected configuration, never a constant.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a sheets webhook client.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Submit forwards the registration aggregate. The script endpoint expects a
// form-urlencoded body with the JSON document under the "payload" key and
// appends one spreadsheet row per participant.
func (c *Client) Submit(ctx context.Context, reg *models.Registration) error {
	doc, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	form := url.Values{"payload": {string(doc)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post registration: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	c.logger.Debug("registration forwarded",
		zap.String("idempotency_token", reg.IdempotencyToken),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}

// TaxIDExists asks the webhook whether a CPF already has a spreadsheet row.
func (c *Client) TaxIDExists(ctx context.Context, taxID string) (bool, error) {
	u := fmt.Sprintf("%s?action=exists&tax_id=%s", c.endpoint, url.QueryEscape(taxID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("query tax id: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	var body struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return body.Exists, nil
}
