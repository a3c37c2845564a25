// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"sync"
)

// StubClient returns a canned response. It records every prompt it
// receives so tests can assert on calls.
type StubClient struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []Prompt
}

// Complete returns Response, or Err when set.
func (s *StubClient) Complete(ctx context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", contextError("", err)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Response == "" {
		return "", &Error{Kind: KindEmpty, Provider: "stub", Err: errors.New("stub has no response")}
	}
	return s.Response, nil
}

// Calls returns the number of Complete calls made so far.
func (s *StubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns a copy of the prompts received so far.
func (s *StubClient) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
