// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch generates many papers concurrently. Requests are
// independent: one failure never stops the others.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperforge/internal/pipeline"
	"github.com/pdiddy/paperforge/pkg/types"
)

// Defaults for Options.
const (
	DefaultConcurrency   = 2
	DefaultStartInterval = time.Second
)

// Runner processes one request. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req types.PaperRequest, sink pipeline.EventSink) (*pipeline.Result, error)
}

// Options bounds how hard a batch drives the completion service.
type Options struct {
	// Concurrency is the number of requests in flight.
	Concurrency int

	// StartInterval is the minimum gap between request starts. Zero or
	// negative disables pacing.
	StartInterval time.Duration

	Logger *zap.Logger
}

// OptionsFrom converts the configured batch settings, applying defaults to
// unset values.
func OptionsFrom(cfg types.BatchConfig, logger *zap.Logger) Options {
	opts := Options{Concurrency: cfg.Concurrency, StartInterval: cfg.StartInterval, Logger: logger}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.StartInterval == 0 {
		opts.StartInterval = DefaultStartInterval
	}
	return opts
}

// Outcome is the result of one request in the batch.
type Outcome struct {
	Index   int
	Request types.PaperRequest
	Result  *pipeline.Result
	Err     error
}

// Summary holds every outcome in input order.
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// Total returns the number of requests processed.
func (s Summary) Total() int { return s.Succeeded + s.Failed }

// HasFailures reports whether any request failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Write prints one line per request followed by the totals.
func (s Summary) Write(w io.Writer) {
	for _, o := range s.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "failed:    #%d %v\n", o.Index+1, o.Err)
			continue
		}
		fmt.Fprintf(w, "generated: #%d %s\n", o.Index+1, o.Result.URI)
	}
	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed (total: %d)\n",
		s.Succeeded, s.Failed, s.Total())
}

// Run processes reqs with at most opts.Concurrency in flight, starting them
// no faster than opts.StartInterval. Requests not started before ctx ends
// are reported as failed with the context error.
func Run(ctx context.Context, r Runner, reqs []types.PaperRequest, sink pipeline.EventSink, opts Options) Summary {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "batch"))

	limit := rate.Inf
	if opts.StartInterval > 0 {
		limit = rate.Every(opts.StartInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(reqs))
	var eg errgroup.Group
	eg.SetLimit(concurrency)

	for i, req := range reqs {
		outcomes[i] = Outcome{Index: i, Request: req}
		if err := limiter.Wait(ctx); err != nil {
			outcomes[i].Err = fmt.Errorf("request %d not started: %w", i+1, err)
			continue
		}
		eg.Go(func() error {
			logger.Debug("starting request", zap.Int("index", i+1))
			res, err := r.Run(ctx, req, sink)
			outcomes[i].Result = res
			outcomes[i].Err = err
			return nil
		})
	}
	_ = eg.Wait()

	s := Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	logger.Info("batch finished", zap.Int("succeeded", s.Succeeded), zap.Int("failed", s.Failed))
	return s
}

// requestFile is the batch file layout: either a bare list of requests or
// a mapping with a requests key and shared defaults.
type requestFile struct {
	Defaults types.PaperRequest   `yaml:"defaults"`
	Requests []types.PaperRequest `yaml:"requests"`
}

// LoadRequests reads a batch file. Fields left empty in a request are taken
// from defaults.
func LoadRequests(path string) ([]types.PaperRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var list []types.PaperRequest
	if err := yaml.Unmarshal(data, &list); err == nil {
		return nonEmpty(path, list)
	}

	var f requestFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", path, err)
	}
	for i := range f.Requests {
		applyDefaults(&f.Requests[i], f.Defaults)
	}
	return nonEmpty(path, f.Requests)
}

func applyDefaults(r *types.PaperRequest, d types.PaperRequest) {
	if r.Format == "" {
		r.Format = d.Format
	}
	if r.PageCount == 0 {
		r.PageCount = d.PageCount
	}
	if len(r.Sections) == 0 {
		r.Sections = append([]string(nil), d.Sections...)
	}
	if r.Authors == "" {
		r.Authors = d.Authors
	}
}

func nonEmpty(path string, reqs []types.PaperRequest) ([]types.PaperRequest, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("batch file %s has no requests", path)
	}
	return reqs, nil
}
