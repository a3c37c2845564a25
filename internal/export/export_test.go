// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(_ context.Context, _ string, w io.Writer) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.output)
	return err
}

type fakeRuntime struct {
	image  string
	stdin  string
	output string
}

func (f *fakeRuntime) Name() string                   { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }

func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if image != f.image {
		return errors.New("no such image")
	}
	return nil
}

func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	f.stdin = string(data)
	_, err = io.WriteString(stdout, f.output)
	return err
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper-1.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx bytes"), 0o644))
	return path
}

func stubPageCount(t *testing.T, n int, err error) {
	t.Helper()
	orig := pageCount
	pageCount = func(string) (int, error) { return n, err }
	t.Cleanup(func() { pageCount = orig })
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestPDF(t *testing.T) {
	stubPageCount(t, 6, nil)
	logger, logs := observed()
	doc := writeDoc(t)

	e := &Exporter{Converter: &fakeConverter{output: "%PDF-1.7"}, Logger: logger}
	res, err := e.PDF(context.Background(), doc, 6)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(doc), "paper-1.pdf"), res.Path)
	assert.Equal(t, 6, res.Pages)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestPDF_PageMismatchWarns(t *testing.T) {
	stubPageCount(t, 5, nil)
	logger, logs := observed()

	e := &Exporter{Converter: &fakeConverter{output: "%PDF-1.7"}, Logger: logger}
	res, err := e.PDF(context.Background(), writeDoc(t), 6)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pages)

	warns := logs.FilterMessage("page count differs from request").All()
	require.Len(t, warns, 1)
	assert.Equal(t, int64(6), warns[0].ContextMap()["requested"])
	assert.Equal(t, int64(5), warns[0].ContextMap()["actual"])
}

func TestPDF_UnreadablePDF(t *testing.T) {
	logger, logs := observed()

	// Real pdfcpu page count on bytes that are not a PDF.
	e := &Exporter{Converter: &fakeConverter{output: "not a pdf"}, Logger: logger}
	res, err := e.PDF(context.Background(), writeDoc(t), 6)
	require.NoError(t, err)
	assert.Zero(t, res.Pages)
	assert.Equal(t, 1, logs.FilterMessage("page count unavailable").Len())
}

func TestPDF_Errors(t *testing.T) {
	stubPageCount(t, 1, nil)

	t.Run("converter failure", func(t *testing.T) {
		e := &Exporter{Converter: &fakeConverter{err: errors.New("boom")}}
		_, err := e.PDF(context.Background(), writeDoc(t), 4)
		assert.EqualError(t, err, "boom")
	})

	t.Run("empty output", func(t *testing.T) {
		e := &Exporter{Converter: &fakeConverter{}}
		_, err := e.PDF(context.Background(), writeDoc(t), 4)
		assert.ErrorIs(t, err, ErrEmptyOutput)
	})

	t.Run("existing pdf", func(t *testing.T) {
		doc := writeDoc(t)
		pdf := filepath.Join(filepath.Dir(doc), "paper-1.pdf")
		require.NoError(t, os.WriteFile(pdf, []byte("old"), 0o644))

		conv := &fakeConverter{output: "%PDF"}
		e := &Exporter{Converter: conv}
		_, err := e.PDF(context.Background(), doc, 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		assert.Zero(t, conv.calls)

		data, _ := os.ReadFile(pdf)
		assert.Equal(t, "old", string(data))
	})
}

func TestContainerConverter(t *testing.T) {
	rt := &fakeRuntime{image: DefaultImage, output: "%PDF"}
	conv, err := NewContainerConverter(context.Background(), rt, "")
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, conv.Convert(context.Background(), writeDoc(t), &out))
	assert.Equal(t, "%PDF", out.String())
	assert.Equal(t, "docx bytes", rt.stdin)

	_, err = NewContainerConverter(context.Background(), rt, "other:latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available in docker")
}
