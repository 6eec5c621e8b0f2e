// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebSocketHandshake(t *testing.T) {
	server := NewServer(&Implementation{Name: "ws-test-server", Version: "0.0.1"}, nil)
	wsTransport := NewWebSocketServerTransport(func(*http.Request) *Server { return server })

	httpServer := httptest.NewServer(wsTransport)
	defer httpServer.Close()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	clientTransport := &WebSocketClientTransport{URL: wsURL}
	client := NewClient(&Implementation{Name: "ws-test-client", Version: "0.0.1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cs, err := client.Connect(ctx, clientTransport)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cs.Close()

	if err := cs.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
