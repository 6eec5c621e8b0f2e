// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// echoParams and echoResult exercise a custom ServerHandle/ClientHandle
// method end to end, beyond the lifecycle's built-ins.
type echoParams struct {
	Meta
	Text string `json:"text"`
}

func (x *echoParams) isParams()              {}
func (x *echoParams) GetProgressToken() any  { return getProgressToken(x) }
func (x *echoParams) SetProgressToken(t any) { setProgressToken(x, t) }

type echoResult struct {
	Text string `json:"text"`
}

func (*echoResult) isResult() {}

func connectedPair(t *testing.T, configureServer func(*Server)) (*ClientSession, *ServerSession) {
	t.Helper()
	clientTransport, serverTransport := NewInMemoryTransports()

	server := NewServer(&Implementation{Name: "test-server", Version: "0.0.1"}, nil)
	if configureServer != nil {
		configureServer(server)
	}

	serverSessionCh := make(chan *ServerSession, 1)
	go func() {
		ss, err := server.Connect(context.Background(), serverTransport)
		if err != nil {
			t.Errorf("server.Connect: %v", err)
			return
		}
		serverSessionCh <- ss
	}()

	client := NewClient(&Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(context.Background(), clientTransport)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	ss := <-serverSessionCh
	return cs, ss
}

func TestInMemoryHandshake(t *testing.T) {
	cs, ss := connectedPair(t, nil)
	defer cs.Close()
	defer ss.Close()

	res := cs.InitializeResult()
	if res == nil {
		t.Fatal("InitializeResult() = nil after Connect")
	}
	if res.ServerInfo.Name != "test-server" {
		t.Errorf("ServerInfo.Name = %q, want %q", res.ServerInfo.Name, "test-server")
	}
	if res.ProtocolVersion == "" {
		t.Errorf("ProtocolVersion is empty")
	}

	params := ss.InitializeParams()
	if params == nil || params.ClientInfo.Name != "test-client" {
		t.Errorf("server-observed InitializeParams = %+v, want ClientInfo.Name = test-client", params)
	}
}

func TestInMemoryCustomMethodCall(t *testing.T) {
	var gotOnServer string
	cs, ss := connectedPair(t, func(s *Server) {
		ServerHandle(s, "echo", func(ctx context.Context, req *ServerRequest[*echoParams]) (*echoResult, error) {
			gotOnServer = req.Params.Text
			return &echoResult{Text: req.Params.Text}, nil
		})
	})
	defer cs.Close()
	defer ss.Close()

	var result echoResult
	if err := cs.Call(context.Background(), "echo", &echoParams{Text: "hello"}, &result); err != nil {
		t.Fatalf("Call(echo): %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("result.Text = %q, want %q", result.Text, "hello")
	}
	if gotOnServer != "hello" {
		t.Errorf("server saw Text = %q, want %q", gotOnServer, "hello")
	}
}

func TestInMemoryMethodNotFound(t *testing.T) {
	cs, ss := connectedPair(t, nil)
	defer cs.Close()
	defer ss.Close()

	err := cs.Call(context.Background(), "nonexistent/method", &PingParams{}, &PingResult{})
	if err == nil {
		t.Fatal("Call(nonexistent/method) succeeded, want MethodNotFound error")
	}
}

func TestInMemoryProgress(t *testing.T) {
	progressCh := make(chan *ProgressNotificationParams, 10)
	cs, ss := connectedPair(t, func(s *Server) {
		ServerHandle(s, "longTask", func(ctx context.Context, req *ServerRequest[*echoParams]) (*echoResult, error) {
			for i := 0; i < 3; i++ {
				if err := req.Progress(ctx, fmt.Sprintf("step %d", i), float64(i), 3); err != nil {
					t.Errorf("Progress: %v", err)
				}
			}
			return &echoResult{Text: "done"}, nil
		})
	})
	defer cs.Close()
	defer ss.Close()

	var result echoResult
	err := cs.Call(context.Background(), "longTask", &echoParams{Text: "go"}, &result,
		WithProgress(func(p *ProgressNotificationParams) { progressCh <- p }))
	if err != nil {
		t.Fatalf("Call(longTask): %v", err)
	}
	if result.Text != "done" {
		t.Errorf("result.Text = %q, want %q", result.Text, "done")
	}

	for i := 0; i < 3; i++ {
		select {
		case p := <-progressCh:
			if p.Progress != float64(i) {
				t.Errorf("progress[%d].Progress = %v, want %v", i, p.Progress, i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for progress notification %d", i)
		}
	}
}

func TestInMemoryCancellation(t *testing.T) {
	handlerCtxCh := make(chan context.Context, 1)
	cs, ss := connectedPair(t, func(s *Server) {
		ServerHandle(s, "slow", func(ctx context.Context, req *ServerRequest[*echoParams]) (*echoResult, error) {
			handlerCtxCh <- ctx
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &echoResult{}, nil
			}
		})
	})
	defer cs.Close()
	defer ss.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cs.Call(ctx, "slow", &echoParams{Text: "go"}, &echoResult{})
	}()

	var handlerCtx context.Context
	select {
	case handlerCtx = <-handlerCtxCh:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Call never returned after cancel")
	}

	select {
	case <-handlerCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handler context was never cancelled following notifications/cancelled")
	}
}

func TestInMemoryPing(t *testing.T) {
	cs, ss := connectedPair(t, nil)
	defer cs.Close()
	defer ss.Close()

	if err := cs.Ping(context.Background()); err != nil {
		t.Errorf("ClientSession.Ping: %v", err)
	}
	if err := ss.Ping(context.Background()); err != nil {
		t.Errorf("ServerSession.Ping: %v", err)
	}
}
