// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one paper request through validation, prompt
// construction, the completion call, response parsing, and rendering,
// reporting progress as ordered stage events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/internal/catalog"
	"github.com/pdiddy/paperforge/internal/completion"
	"github.com/pdiddy/paperforge/internal/paper"
	"github.com/pdiddy/paperforge/internal/prompt"
	"github.com/pdiddy/paperforge/internal/render"
	"github.com/pdiddy/paperforge/internal/storage"
	"github.com/pdiddy/paperforge/pkg/types"
)

// Renderer writes a paper to a document file and returns its path.
type Renderer interface {
	Render(p *types.GeneratedPaper) (string, error)
}

// Recorder stores a summary of each finished run.
type Recorder interface {
	Record(ctx context.Context, r catalog.Run) error
}

// Artifact produces an optional companion file for a rendered document,
// such as an HTML preview or a PDF. Failures are logged and do not fail
// the run.
type Artifact struct {
	Name string
	Make func(ctx context.Context, p *types.GeneratedPaper, docPath string, req types.PaperRequest) (string, error)
}

// Pipeline holds the collaborators shared by all runs. Run may be called
// concurrently; runs share no mutable state.
type Pipeline struct {
	Client   completion.Client
	Renderer Renderer

	// Mode is the response shape requested from the model.
	Mode types.GenerationMode

	// Authors is the default author block for requests without one.
	Authors string

	// Store publishes the rendered document. Nil keeps it local.
	Store storage.Store

	// Recorder, when set, receives one catalog row per run.
	Recorder Recorder

	Artifacts []Artifact
	Logger    *zap.Logger

	// NewID returns a fresh request ID. Defaults to a random UUID.
	NewID func() string
}

// Result is the outcome of a successful run.
type Result struct {
	RequestID string
	File      string
	URI       string
	Paper     *types.GeneratedPaper
	Artifacts map[string]string
	Warnings  []string
	Duration  time.Duration
}

// StageError is the single error returned by a failed run. Retryable tells
// the caller whether resubmitting the same request may succeed.
type StageError struct {
	RequestID string
	Stage     types.Stage
	Message   string
	Err       error
	Retryable bool
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(id string, stage types.Stage, err error) *StageError {
	se := &StageError{RequestID: id, Stage: stage, Message: err.Error(), Err: err}
	var pe *paper.ParseError
	switch {
	case completion.IsRetryable(err):
		se.Retryable = true
	case errors.As(err, &pe):
		se.Retryable = true
	}
	return se
}

// run carries the state of one request.
type run struct {
	p      *Pipeline
	id     string
	req    types.PaperRequest
	sink   EventSink
	logger *zap.Logger
	res    *Result
}

// Run processes req and returns either a result or a *StageError, never
// both. Events go to sink in stage order; sink may be nil.
func (p *Pipeline) Run(ctx context.Context, req types.PaperRequest, sink EventSink) (*Result, error) {
	start := time.Now()
	if sink == nil {
		sink = Discard
	}
	id := p.newID()
	r := &run{
		p:      p,
		id:     id,
		req:    req.Clone(),
		sink:   sink,
		logger: p.logger().With(zap.String("request_id", id)),
		res:    &Result{RequestID: id, Artifacts: map[string]string{}},
	}

	err := r.execute(ctx)
	r.res.Duration = time.Since(start)
	p.record(ctx, r, err)
	if err != nil {
		r.logger.Warn("run failed", zap.Error(err))
		return nil, err
	}
	r.logger.Info("run complete", zap.String("file", r.res.File), zap.Duration("duration", r.res.Duration))
	return r.res, nil
}

func (r *run) execute(ctx context.Context) error {
	var (
		text string
		gen  *types.GeneratedPaper
	)

	if err := r.stage(ctx, types.StageValidation, func() (map[string]any, error) {
		if err := r.req.Validate(); err != nil {
			return nil, err
		}
		return map[string]any{"sections": len(r.req.Sections)}, nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, types.StagePromptGeneration, func() (map[string]any, error) {
		var err error
		text, err = prompt.Build(r.req, r.p.Mode)
		if err != nil {
			return nil, err
		}
		return map[string]any{"prompt_chars": len(text)}, nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, types.StageLLMResponse, func() (map[string]any, error) {
		var err error
		gen, err = r.respond(ctx, text)
		if err != nil {
			return nil, err
		}
		data := map[string]any{"title": gen.Title, "sections": len(gen.Sections)}
		if missing := paper.UnresolvedCitations(gen); len(missing) > 0 {
			r.logger.Warn("unresolved citations", zap.Strings("citations", missing))
			r.res.Warnings = append(r.res.Warnings, fmt.Sprintf("unresolved citations: %v", missing))
			data["unresolved_citations"] = missing
		}
		return data, nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, types.StageDocumentGeneration, func() (map[string]any, error) {
		return r.document(ctx, gen)
	}); err != nil {
		return err
	}

	r.res.Paper = gen
	data := map[string]any{"file": r.res.File}
	if r.res.URI != r.res.File {
		data["uri"] = r.res.URI
	}
	r.emit(types.StageComplete, types.StatusSuccess, data)
	return nil
}

// stage emits started, runs fn, then emits completed or error. A cancelled
// context stops the run before a stage starts; a stage that finished is kept.
func (r *run) stage(ctx context.Context, stage types.Stage, fn func() (map[string]any, error)) error {
	r.emit(stage, types.StatusStarted, nil)

	var data map[string]any
	err := ctx.Err()
	if err == nil {
		data, err = fn()
	}
	if err != nil {
		se := newStageError(r.id, stage, err)
		payload := map[string]any{"message": se.Message, "retryable": se.Retryable}
		var ve types.ValidationErrors
		if errors.As(err, &ve) {
			payload["fields"] = ve.Fields()
		}
		r.emit(stage, types.StatusError, payload)
		return se
	}
	r.emit(stage, types.StatusCompleted, data)
	return nil
}

func (r *run) emit(stage types.Stage, status types.EventStatus, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	r.sink.Emit(types.Event{
		RequestID: r.id,
		Stage:     stage,
		Status:    status,
		Data:      data,
		Time:      time.Now(),
	})
}

// respond calls the model and turns its answer into a renderable paper.
func (r *run) respond(ctx context.Context, text string) (*types.GeneratedPaper, error) {
	raw, err := r.p.Client.Complete(ctx, completion.Prompt{
		System: prompt.System,
		User:   text,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	authors := r.req.Authors
	if authors == "" {
		authors = r.p.Authors
	}
	gen, err := paper.Parse(raw, prompt.ExpectedKeys(r.req), paper.ParseOptions{
		Mode:     r.p.Mode,
		Overview: r.req.Overview,
		Authors:  authors,
	})
	if err != nil {
		return nil, err
	}
	if r.req.Authors != "" {
		gen.Authors = r.req.Authors
	}
	if err := paper.Validate(gen); err != nil {
		return nil, &paper.ParseError{Kind: paper.KindEmptySection, Message: err.Error(), Err: err}
	}
	return gen, nil
}

// document renders, publishes, and produces the optional artifacts.
func (r *run) document(ctx context.Context, gen *types.GeneratedPaper) (map[string]any, error) {
	gen.OutputFile = render.FileName(gen.Title, r.id)
	path, err := r.p.Renderer.Render(gen)
	if err != nil {
		return nil, err
	}
	r.res.File = path
	r.res.URI = path

	if r.p.Store != nil {
		uri, err := r.p.Store.Put(ctx, path)
		if err != nil {
			return nil, &render.Error{Path: path, Err: fmt.Errorf("publishing document: %w", err)}
		}
		r.res.URI = uri
	}

	data := map[string]any{"file": path}
	for _, a := range r.p.Artifacts {
		out, err := a.Make(ctx, gen, path, r.req)
		if err != nil {
			r.logger.Warn("artifact failed", zap.String("artifact", a.Name), zap.Error(err))
			r.res.Warnings = append(r.res.Warnings, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		r.res.Artifacts[a.Name] = out
		data[a.Name] = out
	}
	return data, nil
}

func (p *Pipeline) record(ctx context.Context, r *run, runErr error) {
	if p.Recorder == nil {
		return
	}
	row := catalog.Run{
		ID:        r.id,
		CreatedAt: time.Now().UTC(),
		Format:    r.req.Format,
		PageCount: r.req.PageCount,
		Sections:  r.req.Sections,
		File:      r.res.File,
		URI:       r.res.URI,
		Status:    catalog.StatusSuccess,
		Duration:  r.res.Duration,
	}
	if r.res.Paper != nil {
		row.Title = r.res.Paper.Title
	}
	var se *StageError
	if errors.As(runErr, &se) {
		row.Status = catalog.StatusFailed
		row.FailedStage = se.Stage
		row.Message = se.Message
	}
	// Record even when the caller's context is already cancelled.
	if err := p.Recorder.Record(context.WithoutCancel(ctx), row); err != nil {
		r.logger.Warn("recording run", zap.Error(err))
	}
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger.With(zap.String("component", "pipeline"))
}
