// Package summary generates short summaries of highlights through a
// chat-completions endpoint.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hpungsan/hilite/internal/config"
	"github.com/hpungsan/hilite/internal/errors"
)

// Summarizer produces a summary for a highlight's text.
type Summarizer interface {
	Configured() bool
	Generate(ctx context.Context, text, domain string) (string, error)
}

// Client calls the chat-completions endpoint. It makes one request per
// summary with no retry; the caller's context is the only cancellation.
type Client struct {
	apiKey      string
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// New builds a Client from configuration.
func New(cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Client{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		endpoint:    cfg.APIURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.TemperatureValue(),
		httpClient:  &http.Client{},
	}
}

// Configured reports whether a usable credential is set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != config.PlaceholderAPIKey
}

// BuildPrompt returns the user message sent for text found on domain.
func BuildPrompt(text, domain string) string {
	from := ""
	if domain != "" {
		from = " from " + domain
	}
	return fmt.Sprintf("Please provide a concise summary (2-3 sentences) of the following text highlight%s:\n\n\"%s\"\n\nSummary:", from, text)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns the trimmed first completion for the highlight.
// Missing credentials fail with NOT_CONFIGURED before any request; every
// other failure is UPSTREAM.
func (c *Client) Generate(ctx context.Context, text, domain string) (string, error) {
	if !c.Configured() {
		return "", errors.NewNotConfigured("API key not configured. Set api_key in ~/.hilite/config.json or HILITE_API_KEY.")
	}

	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(text, domain)}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewUpstream(0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewCancelled("summarize")
		}
		return "", errors.NewUpstream(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewUpstream(resp.StatusCode, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		return "", errors.NewUpstream(resp.StatusCode, apiErr.Error.Message)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", errors.NewUpstream(0, fmt.Sprintf("malformed response: %v", err))
	}
	if len(result.Choices) == 0 {
		return "", errors.NewUpstream(0, "response contained no choices")
	}
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", errors.NewUpstream(0, "response contained an empty summary")
	}
	return content, nil
}
