// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperforge/pkg/types"
)

func sampleEvent() types.Event {
	return types.Event{
		RequestID: "0123456789abcdef",
		Stage:     types.StageComplete,
		Status:    types.StatusSuccess,
		Data:      map[string]any{"file": "output/paper.docx", "uri": "gs://b/paper.docx"},
		Time:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	NewWriterSink(&buf).Emit(sampleEvent())

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "01234567 complete"))
	assert.Contains(t, line, "success  file=output/paper.docx uri=gs://b/paper.docx")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONSink(&buf)
	s.Emit(sampleEvent())
	s.Emit(types.Event{RequestID: "r", Stage: types.StageValidation, Status: types.StatusStarted, Data: map[string]any{}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "complete", got["stage"])
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, "output/paper.docx", got["data"].(map[string]any)["file"])
}

func TestMultiAndChanSink(t *testing.T) {
	ch := make(chan types.Event, 2)
	var seen []types.Stage
	sink := MultiSink{
		ChanSink(ch),
		nil,
		SinkFunc(func(ev types.Event) { seen = append(seen, ev.Stage) }),
	}

	sink.Emit(types.Event{Stage: types.StageValidation})
	sink.Emit(types.Event{Stage: types.StagePromptGeneration})
	close(ch)

	var fromChan []types.Stage
	for ev := range ch {
		fromChan = append(fromChan, ev.Stage)
	}
	want := []types.Stage{types.StageValidation, types.StagePromptGeneration}
	assert.Equal(t, want, fromChan)
	assert.Equal(t, want, seen)
}
