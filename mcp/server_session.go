// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// A ServerSession is one active connection between a Server and a client. It
// is returned by [Server.Connect] and is the handle a server uses to call
// back into the client (progress, logging) and to observe session state.
type ServerSession struct {
	server *Server
	conn   Connection
	engine *engine

	mu    sync.Mutex
	state SessionState
}

func newServerSession(s *Server, conn Connection) *ServerSession {
	ss := &ServerSession{
		server: s,
		conn:   conn,
		state:  SessionState{LogLevel: LoggingLevelInfo},
	}
	ss.engine = newEngine(conn, s.opts.Logger)

	base := map[string]serverRequestHandler{
		methodInitialize: ss.handleInitialize,
		methodPing:       ss.handlePing,
		methodSetLevel:   ss.handleSetLevel,
	}
	for method, h := range s.handlers {
		base[method] = h
	}
	for method, h := range base {
		method, h := method, h
		wrapped := addMiddleware(func(ctx context.Context, req *Request) (Result, error) {
			return h(ctx, ss, req.Params)
		}, s.middleware)
		ss.engine.handle(method, func(ctx context.Context, raw json.RawMessage) (Result, error) {
			return wrapped(ctx, &Request{Session: ss, Method: method, Params: raw})
		})
	}

	ss.engine.handleNotification(notificationInitialized, ss.handleInitialized)
	ss.engine.handleNotification(notificationProgress, ss.handleProgress)
	for method, h := range s.notifyHandlers {
		h := h
		ss.engine.handleNotification(method, func(ctx context.Context, raw json.RawMessage) {
			h(ctx, ss, raw)
		})
	}

	return ss
}

// ID returns the transport-level session identifier, or the empty string if
// the transport has no session semantics.
func (ss *ServerSession) ID() string { return ss.conn.SessionID() }

// InitializeParams returns the params the client sent in its initialize
// request, or nil if the session has not yet completed the handshake.
func (ss *ServerSession) InitializeParams() *InitializeParams {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.state.InitializeParams
}

// LogLevel returns the minimum severity the client has requested via
// logging/setLevel, defaulting to LoggingLevelInfo.
func (ss *ServerSession) LogLevel() LoggingLevel {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.state.LogLevel
}

func (ss *ServerSession) handleInitialize(ctx context.Context, raw json.RawMessage) (Result, error) {
	var params InitializeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &CodedError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid initialize params: %v", err)}
	}

	ss.mu.Lock()
	ss.state.InitializeParams = &params
	ss.mu.Unlock()

	if ss.server.opts.StateStore != nil {
		go ss.server.opts.StateStore.Save(context.Background(), ss.ID(), ss.snapshot())
	}

	return &InitializeResult{
		Capabilities:    ss.server.capabilities(),
		Instructions:    ss.server.opts.Instructions,
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		ServerInfo:      &ss.server.impl,
	}, nil
}

func (ss *ServerSession) handleInitialized(ctx context.Context, raw json.RawMessage) {
	// No action required: the handshake is complete once this arrives.
}

func (ss *ServerSession) handlePing(ctx context.Context, raw json.RawMessage) (Result, error) {
	return &PingResult{}, nil
}

func (ss *ServerSession) handleSetLevel(ctx context.Context, raw json.RawMessage) (Result, error) {
	var params SetLoggingLevelParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &CodedError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid logging/setLevel params: %v", err)}
	}
	ss.mu.Lock()
	ss.state.LogLevel = params.Level
	ss.mu.Unlock()

	if ss.server.opts.StateStore != nil {
		go ss.server.opts.StateStore.Save(context.Background(), ss.ID(), ss.snapshot())
	}

	return &SetLoggingLevelResult{}, nil
}

func (ss *ServerSession) handleProgress(ctx context.Context, raw json.RawMessage) {
	if ss.server.opts.ProgressNotificationHandler == nil {
		return
	}
	var params ProgressNotificationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	ss.server.opts.ProgressNotificationHandler(ctx, &ServerRequest[*ProgressNotificationParams]{Session: ss, Params: &params})
}

func (ss *ServerSession) snapshot() *SessionState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	cp := ss.state
	return &cp
}

// Ping sends a ping request to the client and waits for its reply.
func (ss *ServerSession) Ping(ctx context.Context) error {
	return ss.engine.call(ctx, methodPing, &PingParams{}, &PingResult{})
}

// Call issues a request for method to the client and waits for its reply,
// unmarshaling the result into result. This is the extension point for
// application-level methods registered on the client with [ClientHandle].
func (ss *ServerSession) Call(ctx context.Context, method string, params Params, result Result, opts ...CallOption) error {
	return ss.engine.call(ctx, method, params, result, opts...)
}

// NotifyProgress sends a progress update to the client for an in-flight
// request that carried a progress token.
func (ss *ServerSession) NotifyProgress(ctx context.Context, params *ProgressNotificationParams) error {
	return ss.engine.notify(ctx, notificationProgress, params)
}

// Log sends a log message to the client, honoring the level the client most
// recently requested via logging/setLevel: messages below that level are
// dropped. If the server was configured with a LoggingMessageHandler, that
// is called instead of sending to the client.
func (ss *ServerSession) Log(ctx context.Context, params *LoggingMessageParams) error {
	if !logLevelAtLeast(params.Level, ss.LogLevel()) {
		return nil
	}
	if h := ss.server.opts.LoggingMessageHandler; h != nil {
		return h(ctx, &ServerRequest[*LoggingMessageParams]{Session: ss, Params: params})
	}
	return ss.engine.notify(ctx, notificationLoggingMessage, params)
}

// Close terminates the session's connection.
func (ss *ServerSession) Close() error {
	return ss.conn.Close()
}

// Wait blocks until the session's connection closes, returning the error
// that ended it (io.EOF on a clean close). A stdio-style main program calls
// this after Connect to stay alive for the session's lifetime.
func (ss *ServerSession) Wait() error {
	<-ss.engine.done
	return ss.engine.closeErr
}

// logLevelSeverity orders LoggingLevel from least to most severe, per
// RFC-5424 §6.2.1.
var logLevelSeverity = map[LoggingLevel]int{
	LoggingLevelDebug:     0,
	LoggingLevelInfo:      1,
	LoggingLevelNotice:    2,
	LoggingLevelWarning:   3,
	LoggingLevelError:     4,
	LoggingLevelCritical:  5,
	LoggingLevelAlert:     6,
	LoggingLevelEmergency: 7,
}

func logLevelAtLeast(level, min LoggingLevel) bool {
	return logLevelSeverity[level] >= logLevelSeverity[min]
}
