// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mcpcore/go-sdk/internal/jsonrpc2"
)

func TestStdioTransportWriteReadRoundTrip(t *testing.T) {
	r, w := io.Pipe()
	transport := NewStdioTransport(r, w)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	msg := &JSONRPCRequest{Method: "ping", ID: jsonrpc2.Int64ID(1), Params: []byte(`{}`)}
	if err := conn.Write(context.Background(), msg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := conn.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	req, ok := got.(*JSONRPCRequest)
	if !ok {
		t.Fatalf("got %T, want *JSONRPCRequest", got)
	}
	if req.Method != "ping" {
		t.Errorf("Method = %q, want %q", req.Method, "ping")
	}
}

func TestStdioTransportSkipsMalformedLines(t *testing.T) {
	r, w := io.Pipe()
	transport := NewStdioTransport(r, io.Discard)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	go func() {
		io.WriteString(w, "not json\n")
		valid, _ := jsonrpc2.EncodeMessage(&JSONRPCNotification{Method: "notifications/initialized", Params: []byte(`{}`)})
		w.Write(append(valid, '\n'))
	}()

	got, err := conn.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	notif, ok := got.(*JSONRPCNotification)
	if !ok {
		t.Fatalf("got %T, want *JSONRPCNotification", got)
	}
	if notif.Method != "notifications/initialized" {
		t.Errorf("Method = %q, want notifications/initialized", notif.Method)
	}
}

func TestStdioTransportReadEOFAfterClose(t *testing.T) {
	r, w := io.Pipe()
	transport := NewStdioTransport(r, io.Discard)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	w.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := conn.Read(context.Background()); err != io.EOF {
			t.Errorf("Read after EOF = %v, want io.EOF", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after underlying reader closed")
	}
}

func TestStdioTransportReadContextCancellation(t *testing.T) {
	r, _ := io.Pipe()
	transport := NewStdioTransport(r, io.Discard)
	conn, err := transport.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conn.Read(ctx); err != context.Canceled {
		t.Errorf("Read with cancelled context = %v, want context.Canceled", err)
	}
}
