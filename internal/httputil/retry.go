// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the provider clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay is the first backoff delay. It doubles on every attempt.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

// maxRetryAfter caps a server-provided Retry-After value.
const maxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 3

// NoRetries makes a Retrier send each request exactly once, for callers that
// apply their own retry policy.
const NoRetries = -1

// StatusOverloaded is returned by some providers when they shed load.
const StatusOverloaded = 529

// Retrier sends requests and retries throttled or overloaded responses.
type Retrier struct {
	Client     *http.Client
	MaxRetries int
	Logger     *zap.Logger
}

// ShouldRetry reports whether a response status signals a transient
// condition: 429 Too Many Requests, 503 Service Unavailable, or 529
// Overloaded.
func ShouldRetry(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, StatusOverloaded:
		return true
	}
	return false
}

// Do executes req and retries while ShouldRetry holds for the status, up to
// MaxRetries times. Zero selects the default of 3 and a negative value
// (NoRetries) disables retrying. The wait is the Retry-After header when the
// server sends one, otherwise RetryBaseDelay doubled per attempt. A request
// with a body must have GetBody set (http.NewRequest does this for
// in-memory readers) so the body can be replayed.
//
// After exhausting retries the last response is returned for the caller to
// inspect. Context cancellation during a wait returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := r.MaxRetries
	switch {
	case maxRetries < 0:
		maxRetries = 0
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !ShouldRetry(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Info("provider busy, retrying",
			zap.Int("status", resp.StatusCode),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// DoWithRetry is Retrier.Do with a default logger.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	r := &Retrier{Client: client, MaxRetries: maxRetries}
	return r.Do(ctx, req)
}

// retryAfter parses a Retry-After value given in seconds. HTTP-date values
// and garbage yield zero, which selects exponential backoff.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
