// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func collectEvents(t *testing.T, r io.Reader) []event {
	t.Helper()
	var got []event
	for evt, err := range scanEvents(r) {
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("scanEvents: %v", err)
		}
		got = append(got, evt)
	}
	return got
}

func TestScanEventsBasic(t *testing.T) {
	raw := "event: message\nid: 1_0\ndata: hello\n\n"
	got := collectEvents(t, strings.NewReader(raw))
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].name != "message" || got[0].id != "1_0" || string(got[0].data) != "hello" {
		t.Errorf("got %+v", got[0])
	}
}

func TestScanEventsMultiLineData(t *testing.T) {
	raw := "data: line one\ndata: line two\n\n"
	got := collectEvents(t, strings.NewReader(raw))
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if string(got[0].data) != "line one\nline two" {
		t.Errorf("data = %q, want %q", got[0].data, "line one\nline two")
	}
}

func TestScanEventsMultipleFrames(t *testing.T) {
	raw := "id: 0_0\ndata: first\n\nid: 0_1\ndata: second\n\n"
	got := collectEvents(t, strings.NewReader(raw))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].id != "0_0" || string(got[0].data) != "first" {
		t.Errorf("event 0 = %+v", got[0])
	}
	if got[1].id != "0_1" || string(got[1].data) != "second" {
		t.Errorf("event 1 = %+v", got[1])
	}
}

func TestScanEventsIgnoresUnknownFields(t *testing.T) {
	raw := "retry: 1000\nevent: message\ndata: x\n\n"
	got := collectEvents(t, strings.NewReader(raw))
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].name != "message" || string(got[0].data) != "x" {
		t.Errorf("got %+v", got[0])
	}
}

// TestWriteEventRoundTrip checks that writeEvent's output, fed back through
// scanEvents, reproduces the original event.
func TestWriteEventRoundTrip(t *testing.T) {
	in := event{name: "message", id: "3_2", data: []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)}
	var buf bytes.Buffer
	if _, err := writeEvent(&buf, in); err != nil {
		t.Fatalf("writeEvent: %v", err)
	}
	got := collectEvents(t, &buf)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].name != in.name || got[0].id != in.id || !bytes.Equal(got[0].data, in.data) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got[0], in)
	}
}

func TestWriteEventMultiLineData(t *testing.T) {
	in := event{data: []byte("line1\nline2\nline3")}
	var buf bytes.Buffer
	if _, err := writeEvent(&buf, in); err != nil {
		t.Fatalf("writeEvent: %v", err)
	}
	got := collectEvents(t, &buf)
	if len(got) != 1 || string(got[0].data) != "line1\nline2\nline3" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseFormatEventID(t *testing.T) {
	for _, sid := range []streamID{0, 1, 42} {
		for _, idx := range []int{0, 1, 99} {
			s := formatEventID(sid, idx)
			gotSid, gotIdx, ok := parseEventID(s)
			if !ok || gotSid != sid || gotIdx != idx {
				t.Errorf("parseEventID(formatEventID(%d, %d)) = (%d, %d, %v), want (%d, %d, true)",
					sid, idx, gotSid, gotIdx, ok, sid, idx)
			}
		}
	}
}

func TestParseEventIDMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "1", "1_", "_1", "-1_0", "1_-1"} {
		if _, _, ok := parseEventID(s); ok {
			t.Errorf("parseEventID(%q) succeeded, want failure", s)
		}
	}
}
