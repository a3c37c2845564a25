// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperforge/internal/pipeline"
	"github.com/pdiddy/paperforge/pkg/types"
)

// fakeRunner fails requests whose overview is "fail" and tracks the peak
// number of concurrent runs.
type fakeRunner struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (f *fakeRunner) Run(_ context.Context, req types.PaperRequest, _ pipeline.EventSink) (*pipeline.Result, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if req.Overview == "fail" {
		return nil, errors.New("stage llm_response failed: boom")
	}
	return &pipeline.Result{URI: "output/" + req.Overview + ".docx"}, nil
}

func requests(overviews ...string) []types.PaperRequest {
	reqs := make([]types.PaperRequest, len(overviews))
	for i, o := range overviews {
		reqs[i] = types.PaperRequest{Overview: o}
	}
	return reqs
}

func TestRun_Summary(t *testing.T) {
	r := &fakeRunner{}
	s := Run(context.Background(), r, requests("a", "fail", "c"), nil, Options{Concurrency: 2, StartInterval: -1})

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 3, s.Total())
	assert.True(t, s.HasFailures())
	require.Len(t, s.Outcomes, 3)
	assert.Equal(t, "output/c.docx", s.Outcomes[2].Result.URI)
	assert.Error(t, s.Outcomes[1].Err)

	var buf bytes.Buffer
	s.Write(&buf)
	assert.Contains(t, buf.String(), "generated: #1 output/a.docx")
	assert.Contains(t, buf.String(), "failed:    #2 stage llm_response failed: boom")
	assert.Contains(t, buf.String(), "Batch summary: 2 succeeded, 1 failed (total: 3)")
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	r := &fakeRunner{delay: 20 * time.Millisecond}
	s := Run(context.Background(), r, requests("a", "b", "c", "d", "e", "f"), nil, Options{Concurrency: 2, StartInterval: -1})

	assert.Equal(t, 6, s.Succeeded)
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
	assert.Equal(t, int32(6), r.calls.Load())
}

func TestRun_StartInterval(t *testing.T) {
	r := &fakeRunner{}
	start := time.Now()
	Run(context.Background(), r, requests("a", "b", "c"), nil, Options{Concurrency: 3, StartInterval: 30 * time.Millisecond})

	// The first start is immediate; the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRunner{}
	s := Run(ctx, r, requests("a", "b"), nil, Options{Concurrency: 1, StartInterval: time.Second})

	assert.Equal(t, 2, s.Failed)
	assert.Zero(t, r.calls.Load())
	assert.ErrorIs(t, s.Outcomes[0].Err, context.Canceled)
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(types.BatchConfig{}, nil)
	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, DefaultStartInterval, opts.StartInterval)

	opts = OptionsFrom(types.BatchConfig{Concurrency: 5, StartInterval: -1}, nil)
	assert.Equal(t, 5, opts.Concurrency)
	assert.Equal(t, time.Duration(-1), opts.StartInterval)
}

func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRequests(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		path := writeBatch(t, `
- overview: First project description that is long enough.
  format: IEEE
  page_count: 5
  sections: [Abstract, Introduction, Method, Results, Conclusion]
- overview: Second project description that is long enough.
  format: IEEE
  page_count: 8
  sections: [Abstract, Introduction, Method, Results, Conclusion]
`)
		reqs, err := LoadRequests(path)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, 8, reqs[1].PageCount)
	})

	t.Run("defaults", func(t *testing.T) {
		path := writeBatch(t, `
defaults:
  format: IEEE
  page_count: 6
  sections: [Abstract, Introduction, Method, Results, Conclusion]
requests:
  - overview: Uses every default value from the defaults block.
  - overview: Overrides the page count but keeps the sections.
    page_count: 10
`)
		reqs, err := LoadRequests(path)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "IEEE", reqs[0].Format)
		assert.Equal(t, 6, reqs[0].PageCount)
		assert.Equal(t, 10, reqs[1].PageCount)
		assert.Len(t, reqs[1].Sections, 5)
		for _, r := range reqs {
			assert.NoError(t, r.Validate())
		}

		reqs[0].Sections[0] = "Changed"
		assert.Equal(t, "Abstract", reqs[1].Sections[0])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := LoadRequests(writeBatch(t, ""))
		assert.ErrorContains(t, err, "no requests")

		_, err = LoadRequests(writeBatch(t, "requests: []\nextra: 1\n"))
		assert.ErrorContains(t, err, "parsing batch file")

		_, err = LoadRequests(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "reading batch file")
	})
}
