// Package automation is the client for the browser automation service. Each
// call drives a headless browser session against one URL per a natural-
// language goal and returns the extracted payload.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"sentipulse/internal/config"
	apierrors "sentipulse/internal/errors"
)

// Client calls the Mino automation API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a new automation client from configuration. The HTTP
// client carries no timeout of its own; each Run is bounded by the caller's
// context so that per-source deadlines stay under the fetcher's control.
func NewClient(cfg config.AutomationConfig, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{},
		logger:  logger.With(slog.String("component", "automation_client")),
	}
}

// IsConfigured reports whether the API credential is present
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type runRequest struct {
	URL            string `json:"url"`
	Goal           string `json:"goal"`
	BrowserProfile string `json:"browser_profile"`
}

type runResponse struct {
	Status string         `json:"status"`
	Result map[string]any `json:"result"`
	Error  *runError      `json:"error"`
}

type runError struct {
	Message string `json:"message"`
}

// Run executes one automation session. A non-success response, a FAILED
// status, or a response carrying an error object all return an error; the
// caller decides whether that is fatal. A missing credential is the one
// configuration failure that must abort the whole fetch.
func (c *Client) Run(ctx context.Context, url, goal string, useStealth bool) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, apierrors.New(apierrors.KindConfiguration, "MINO_API_KEY is required")
	}

	profile := "lite"
	if useStealth {
		profile = "stealth"
	}

	data, err := json.Marshal(runRequest{URL: url, Goal: goal, BrowserProfile: profile})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/automation/run", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("automation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WarnContext(ctx, "automation request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("url", url),
			slog.String("body", string(respBody)))
		return nil, fmt.Errorf("automation request returned %d", resp.StatusCode)
	}

	var result runResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding automation response: %w", err)
	}

	if result.Status == "FAILED" || result.Error != nil {
		msg := "unknown failure"
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		c.logger.WarnContext(ctx, "automation run failed",
			slog.String("url", url),
			slog.String("reason", msg))
		return nil, fmt.Errorf("automation run failed: %s", msg)
	}

	return result.Result, nil
}
