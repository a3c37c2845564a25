// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/paperforge/pkg/types"
)

// EventSink receives progress events. A run emits its events sequentially,
// so a sink sees one run's events in emission order. Sinks shared between
// concurrent runs must be safe for concurrent use.
type EventSink interface {
	Emit(types.Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(types.Event)

func (f SinkFunc) Emit(ev types.Event) { f(ev) }

// Discard drops every event.
var Discard EventSink = SinkFunc(func(types.Event) {})

// MultiSink fans each event out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ev types.Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// ChanSink sends events on a channel. Sends block until the receiver is
// ready, so the receiver must drain the channel while the run is active.
type ChanSink chan<- types.Event

func (c ChanSink) Emit(ev types.Event) { c <- ev }

// WriterSink prints one human-readable line per event.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing progress lines to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(ev types.Event) {
	line := fmt.Sprintf("%-8s %-19s %s", shortID(ev.RequestID), ev.Stage, ev.Status)
	if d := formatData(ev.Data); d != "" {
		line += "  " + d
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}

// JSONSink writes one JSON object per event, newline delimited.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONSink returns a sink encoding events to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Emit(ev types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Event data holds only strings, numbers, bools, and slices of them.
	_ = s.enc.Encode(ev)
}
