// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export converts rendered documents to PDF through a converter
// container and checks the page count of the result.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/internal/container"
)

// DefaultImage reads a DOCX on stdin and writes a PDF on stdout.
const DefaultImage = "paperforge-docx2pdf:latest"

// ErrEmptyOutput is returned when the converter exits cleanly but writes
// nothing.
var ErrEmptyOutput = errors.New("converter produced empty output")

// pageCount is replaced in tests.
var pageCount = api.PageCountFile

// Converter turns the document at docPath into PDF bytes written to w.
type Converter interface {
	Convert(ctx context.Context, docPath string, w io.Writer) error
}

// ContainerConverter pipes documents through a converter image.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
}

// NewContainerConverter verifies that image exists in rt before returning.
func NewContainerConverter(ctx context.Context, rt container.Runtime, image string) (*ContainerConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("converter image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt, image: image}, nil
}

func (c *ContainerConverter) Convert(ctx context.Context, docPath string, w io.Writer) error {
	f, err := os.Open(docPath)
	if err != nil {
		return fmt.Errorf("opening document %s: %w", docPath, err)
	}
	defer f.Close()

	if err := c.runtime.Run(ctx, c.image, f, w); err != nil {
		return fmt.Errorf("converting %s: %w", docPath, err)
	}
	return nil
}

// Result describes one exported PDF.
type Result struct {
	Path  string
	Pages int
}

// Exporter writes a PDF next to each rendered document.
type Exporter struct {
	Converter Converter
	Logger    *zap.Logger
}

// New returns an Exporter backed by the detected container runtime.
func New(ctx context.Context, image string, logger *zap.Logger) (*Exporter, error) {
	rt, err := container.Detect(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := NewContainerConverter(ctx, rt, image)
	if err != nil {
		return nil, err
	}
	return &Exporter{Converter: conv, Logger: logger}, nil
}

// PDF converts docPath to a .pdf file in the same directory. An existing
// PDF is never overwritten. When wantPages is positive and differs from the
// page count of the result, a warning is logged; a page count that cannot be
// read is logged and reported as zero.
func (e *Exporter) PDF(ctx context.Context, docPath string, wantPages int) (*Result, error) {
	logger := e.logger().With(zap.String("document", docPath))
	path := strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".pdf"
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("exporting %s: %s already exists", docPath, path)
	}

	var out bytes.Buffer
	if err := e.Converter.Convert(ctx, docPath, &out); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("exporting %s: %w", docPath, ErrEmptyOutput)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("moving pdf into place: %w", err)
	}

	res := &Result{Path: path}
	n, err := pageCount(path)
	if err != nil {
		logger.Warn("page count unavailable", zap.Error(err))
		return res, nil
	}
	res.Pages = n
	if wantPages > 0 && n != wantPages {
		logger.Warn("page count differs from request",
			zap.Int("requested", wantPages), zap.Int("actual", n))
	}
	logger.Debug("exported pdf", zap.String("pdf", path), zap.Int("pages", n))
	return res, nil
}

func (e *Exporter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger.With(zap.String("component", "export"))
}
