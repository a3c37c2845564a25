// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion sends prompts to a text-generation service and returns
// the raw response text. Providers are interchangeable behind Client; the
// pipeline never sees provider configuration.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pdiddy/paperforge/pkg/types"
)

// Default settings applied by NewClient when the config leaves them unset.
const (
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 8192
)

// Prompt is one request to the model.
type Prompt struct {
	System string
	User   string

	// JSON asks providers that support it to constrain output to JSON.
	JSON bool
}

// Client abstracts the text-generation service so tests can supply a stub.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, p Prompt) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

// Kind classifies a completion failure.
type Kind string

const (
	KindTransport Kind = "transport"
	KindTimeout   Kind = "timeout"
	KindAuth      Kind = "auth"
	KindEmpty     Kind = "empty"
	KindRejected  Kind = "rejected"
)

// Error is a failed completion call. StatusCode is set when the provider
// answered over HTTP.
type Error struct {
	Kind       Kind
	Provider   types.Provider
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := "completion " + string(e.Kind)
	if e.Provider != "" {
		msg = string(e.Provider) + " " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same prompt might succeed on another try.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindRejected:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	}
	return false
}

// IsRetryable reports whether err is a retryable completion error.
func IsRetryable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Retryable()
}

// statusKind maps an HTTP status from a provider to an error kind.
func statusKind(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindRejected
	}
}

// contextError converts a context failure into a completion error.
func contextError(provider types.Provider, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Err: err}
	}
	return &Error{Kind: KindTransport, Provider: provider, Err: err}
}

// NewClient builds the client selected by cfg.Provider, wrapped with the
// configured timeout and retry policy.
func NewClient(ctx context.Context, cfg types.CompletionConfig) (Client, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		c, err = NewOpenAIClient(cfg)
	case types.ProviderAnthropic:
		c, err = NewAnthropicClient(cfg)
	case types.ProviderVertex:
		c, err = NewVertexClient(ctx, cfg)
	case types.ProviderStub:
		c, err = stubFromFile(cfg.StubFile)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithPolicy(c, cfg.Timeout, cfg.MaxRetries), nil
}

func stubFromFile(path string) (Client, error) {
	if path == "" {
		return nil, errors.New("stub provider requires stub_file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stub response: %w", err)
	}
	return &StubClient{Response: string(data)}, nil
}
