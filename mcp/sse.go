// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"
)

// event is a single Server-Sent Event frame.
type event struct {
	name string
	id   string
	data []byte
}

// writeEvent writes a single SSE frame to w, in the minimal form this
// package's client understands: an optional "event:" line, an optional
// "id:" line, a "data:" line per line of data (multi-line payloads are
// split across several data: lines), and a trailing blank line. It returns
// the number of bytes written and flushes w if it implements http.Flusher.
func writeEvent(w io.Writer, evt event) (int, error) {
	var buf bytes.Buffer
	if evt.name != "" {
		fmt.Fprintf(&buf, "event: %s\n", evt.name)
	}
	if evt.id != "" {
		fmt.Fprintf(&buf, "id: %s\n", evt.id)
	}
	data := evt.data
	if len(data) == 0 {
		buf.WriteString("data: \n")
	}
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			data = data[i+1:]
		} else {
			data = nil
		}
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	n, err := w.Write(buf.Bytes())
	if f, ok := w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return n, err
}

// scanEvents returns an iterator over the SSE frames read from r, in the
// order they appear. Frames are terminated by a blank line, per the SSE
// spec; scanEvents tolerates a frame split across multiple underlying
// reads because it buffers with a bufio.Scanner over the whole stream.
//
// The iterator yields (event{}, io.EOF) exactly once, as its final value,
// when the stream ends cleanly; any other error ends iteration with that
// error as the final yielded value.
func scanEvents(r io.Reader) iter.Seq2[event, error] {
	return func(yield func(event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

		var cur event
		var dataLines []string
		haveFrame := false

		flush := func() (event, bool) {
			if !haveFrame {
				return event{}, false
			}
			cur.data = []byte(strings.Join(dataLines, "\n"))
			out := cur
			cur = event{}
			dataLines = nil
			haveFrame = false
			return out, true
		}

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if evt, ok := flush(); ok {
					if !yield(evt, nil) {
						return
					}
				}
				continue
			}
			haveFrame = true
			switch {
			case strings.HasPrefix(line, "event:"):
				cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "id:"):
				cur.id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			case strings.HasPrefix(line, "data:"):
				dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			default:
				// Unknown field; ignore per the SSE spec.
			}
		}
		if err := scanner.Err(); err != nil {
			yield(event{}, err)
			return
		}
		if evt, ok := flush(); ok {
			if !yield(evt, nil) {
				return
			}
		}
		yield(event{}, io.EOF)
	}
}
