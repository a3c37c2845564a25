// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/internal/catalog"
	"github.com/pdiddy/paperforge/internal/completion"
	"github.com/pdiddy/paperforge/internal/export"
	"github.com/pdiddy/paperforge/internal/metrics"
	"github.com/pdiddy/paperforge/internal/pipeline"
	"github.com/pdiddy/paperforge/internal/preview"
	"github.com/pdiddy/paperforge/internal/render"
	"github.com/pdiddy/paperforge/internal/storage"
	"github.com/pdiddy/paperforge/pkg/types"
)

// addRunFlags registers the flags shared by forge and batch.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("preview", false, "also write an HTML preview next to each document")
	cmd.Flags().Bool("pdf", false, "also export each document to PDF through the converter container")
	cmd.Flags().String("events", "text", "progress output on stderr: text, json, or none")
	cmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path when done")
	cmd.Flags().String("bucket", "", "publish documents to this GCS bucket")
}

// app is a fully wired pipeline plus the resources it holds open.
type app struct {
	cfg      types.PipelineConfig
	pipeline *pipeline.Pipeline
	sink     pipeline.EventSink
	metrics  *metrics.Collector
	closers  []io.Closer
}

// newApp builds the pipeline from configuration and the run flags of cmd.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("preview") {
		cfg.Render.Preview, _ = cmd.Flags().GetBool("preview")
	}
	if cmd.Flags().Changed("pdf") {
		cfg.Export.PDF, _ = cmd.Flags().GetBool("pdf")
	}
	if b, _ := cmd.Flags().GetString("bucket"); b != "" {
		cfg.Storage.Bucket = b
	}

	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	client, err := completion.NewClient(ctx, cfg.Completion)
	if err != nil {
		return nil, err
	}
	if c, isCloser := client.(io.Closer); isCloser {
		a.closers = append(a.closers, c)
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if c, isCloser := store.(io.Closer); isCloser {
		a.closers = append(a.closers, c)
	}

	p := &pipeline.Pipeline{
		Client:   client,
		Renderer: render.New(cfg.Render.OutputDir, logger),
		Mode:     cfg.Mode,
		Authors:  cfg.Render.Authors,
		Store:    store,
		Logger:   logger,
	}

	if !cfg.Catalog.Disabled {
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cat)
		p.Recorder = cat
	}

	if cfg.Render.Preview {
		p.Artifacts = append(p.Artifacts, pipeline.Artifact{
			Name: "preview",
			Make: func(_ context.Context, gen *types.GeneratedPaper, docPath string, _ types.PaperRequest) (string, error) {
				return preview.Write(gen, docPath)
			},
		})
	}

	if cfg.Export.PDF {
		exp, err := export.New(ctx, cfg.Export.Image, logger)
		if err != nil {
			// The document is still produced without its PDF.
			logger.Warn("pdf export disabled", zap.Error(err))
		} else {
			p.Artifacts = append(p.Artifacts, pipeline.Artifact{
				Name: "pdf",
				Make: func(ctx context.Context, _ *types.GeneratedPaper, docPath string, req types.PaperRequest) (string, error) {
					res, err := exp.PDF(ctx, docPath, req.PageCount)
					if err != nil {
						return "", err
					}
					return res.Path, nil
				},
			})
		}
	}

	sink, err := eventSink(cmd)
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		a.metrics = metrics.NewCollector(logger)
		sink = pipeline.MultiSink{sink, a.metrics}
	}

	a.pipeline = p
	a.sink = sink
	ok = true
	return a, nil
}

func eventSink(cmd *cobra.Command) (pipeline.EventSink, error) {
	mode, _ := cmd.Flags().GetString("events")
	switch mode {
	case "text":
		return pipeline.NewWriterSink(os.Stderr), nil
	case "json":
		return pipeline.NewJSONSink(os.Stderr), nil
	case "none":
		return pipeline.Discard, nil
	default:
		return nil, fmt.Errorf("unknown --events value %q: use text, json, or none", mode)
	}
}

// finish writes metrics when requested.
func (a *app) finish(cmd *cobra.Command) error {
	if a.metrics == nil {
		return nil
	}
	path, _ := cmd.Flags().GetString("metrics-file")
	return a.metrics.WriteFile(path)
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("closing resource", zap.Error(err))
		}
	}
}
