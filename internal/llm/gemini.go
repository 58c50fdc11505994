// Package llm is the client for the structured-extraction completion service.
// The service accepts a natural-language instruction plus a target JSON shape
// and returns raw text expected to parse as JSON conforming to that shape.
package llm

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

// Client calls the Gemini generateContent API
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a new completion client from configuration
func NewClient(cfg config.GeminiConfig, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(slog.String("component", "llm_client")),
	}
}

// IsConfigured reports whether the API credential is present
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig *generateConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	ResponseMIMEType   string         `json:"responseMimeType,omitempty"`
	ResponseJSONSchema map[string]any `json:"responseJsonSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends a prompt constrained to the given response schema and
// returns the raw response text. Empty text is an upstream failure; callers
// are responsible for decoding and validating the shape.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, responseSchema map[string]any) (string, error) {
	if c.apiKey == "" {
		return "", apierrors.New(apierrors.KindConfiguration, "GEMINI_API_KEY is required")
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generateConfig{
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: responseSchema,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apierrors.WrapMsg(apierrors.KindUpstream, fmt.Sprintf("Gemini API error: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WarnContext(ctx, "Gemini API returned non-OK status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)))
		return "", apierrors.Newf(apierrors.KindUpstream, "Gemini API returned %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apierrors.WrapMsg(apierrors.KindUpstream, fmt.Sprintf("decoding Gemini response: %v", err), err)
	}

	text := c.responseText(result)
	if text == "" {
		return "", apierrors.New(apierrors.KindUpstream, "Empty response from Gemini")
	}

	return text, nil
}

// responseText concatenates the text parts of the first candidate
func (c *Client) responseText(result generateResponse) string {
	if len(result.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
