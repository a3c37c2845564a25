// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = 2 * time.Second

type policyClient struct {
	next       Client
	timeout    time.Duration
	maxRetries int
}

// WithPolicy bounds every call to c by timeout and retries retryable
// failures up to maxRetries extra times with exponential backoff. A zero
// timeout means DefaultTimeout; zero retries means a single attempt. The
// returned client is an io.Closer that closes c when c is one.
func WithPolicy(c Client, timeout time.Duration, maxRetries int) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &policyClient{next: c, timeout: timeout, maxRetries: maxRetries}
}

func (p *policyClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var (
		lastErr  error
		attempts int
	)
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", contextError("", ctx.Err())
			case <-time.After(backoff):
			}
		}

		attempts++
		text, err := p.once(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	if attempts > 1 {
		return "", fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return "", lastErr
}

// Close releases the wrapped client.
func (p *policyClient) Close() error {
	if c, ok := p.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *policyClient) once(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.next.Complete(ctx, prompt)
	if err == nil {
		return text, nil
	}
	var ce *Error
	switch {
	case errors.As(err, &ce):
		return "", err
	case ctx.Err() != nil:
		return "", contextError("", ctx.Err())
	default:
		return "", &Error{Kind: KindTransport, Err: err}
	}
}
