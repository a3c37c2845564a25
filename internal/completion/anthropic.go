// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paperforge/internal/httputil"
	"github.com/pdiddy/paperforge/pkg/types"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test
// substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const (
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-5"
)

// AnthropicClient calls the Anthropic Messages API. Each Complete sends one
// request; throttled and overloaded answers come back as retryable errors.
type AnthropicClient struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// NewAnthropicClient checks cfg and returns a client.
func NewAnthropicClient(cfg types.CompletionConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing: set completion.api_key or .secrets/anthropic-api-key")
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{APIKey: cfg.APIKey, Model: model, MaxTokens: cfg.MaxTokens}, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt as a single user turn and returns the
// concatenated text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, p Prompt) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		System:    p.System,
		Messages:  []anthropicMessage{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, httputil.NoRetries)
	if err != nil {
		if ctx.Err() != nil {
			return "", contextError(types.ProviderAnthropic, ctx.Err())
		}
		return "", &Error{Kind: KindTransport, Provider: types.ProviderAnthropic, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(data))
		var eb anthropicErrorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Type + ": " + eb.Error.Message
		}
		return "", &Error{
			Kind:       statusKind(resp.StatusCode),
			Provider:   types.ProviderAnthropic,
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", &Error{Kind: KindTransport, Provider: types.ProviderAnthropic, Err: fmt.Errorf("decoding response: %w", err)}
	}

	var b strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", &Error{Kind: KindEmpty, Provider: types.ProviderAnthropic, Err: fmt.Errorf("no text content (stop_reason %q)", ar.StopReason)}
	}
	return b.String(), nil
}
