// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"sync"
)

// A ClientSession is one active connection between a Client and a server,
// returned by [Client.Connect] after the initialize handshake completes.
type ClientSession struct {
	client *Client
	conn   Connection
	engine *engine

	cancelRun context.CancelFunc

	mu         sync.Mutex
	initResult *InitializeResult
}

func newClientSession(c *Client, conn Connection) *ClientSession {
	cs := &ClientSession{client: c, conn: conn}
	cs.engine = newEngine(conn, c.opts.Logger)

	cs.engine.handle(methodPing, cs.handlePing)
	cs.engine.handleNotification(notificationLoggingMessage, cs.handleLoggingMessage)
	cs.engine.handleNotification(notificationProgress, cs.handleProgress)

	for method, h := range c.handlers {
		h := h
		cs.engine.handle(method, func(ctx context.Context, raw json.RawMessage) (Result, error) {
			return h(ctx, cs, raw)
		})
	}
	for method, h := range c.notifyHandlers {
		h := h
		cs.engine.handleNotification(method, func(ctx context.Context, raw json.RawMessage) {
			h(ctx, cs, raw)
		})
	}

	return cs
}

// ID returns the transport-level session identifier, or the empty string if
// the transport has no session semantics.
func (cs *ClientSession) ID() string { return cs.conn.SessionID() }

// InitializeResult returns the result the server sent during the
// initialize handshake.
func (cs *ClientSession) InitializeResult() *InitializeResult {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.initResult
}

func (cs *ClientSession) handlePing(ctx context.Context, raw json.RawMessage) (Result, error) {
	return &PingResult{}, nil
}

func (cs *ClientSession) handleLoggingMessage(ctx context.Context, raw json.RawMessage) {
	if cs.client.opts.LoggingMessageHandler == nil {
		return
	}
	var params LoggingMessageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	cs.client.opts.LoggingMessageHandler(ctx, &ClientRequest[*LoggingMessageParams]{Session: cs, Params: &params})
}

func (cs *ClientSession) handleProgress(ctx context.Context, raw json.RawMessage) {
	if cs.client.opts.ProgressNotificationHandler == nil {
		return
	}
	var params ProgressNotificationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	cs.client.opts.ProgressNotificationHandler(ctx, &ClientRequest[*ProgressNotificationParams]{Session: cs, Params: &params})
}

// checkCapability gates outgoing calls against the server's advertised
// capabilities, per spec.md 4.9's "strict capabilities" mode: a client that
// has not seen a Logging capability from the server has no business sending
// it logging/setLevel. Methods this core doesn't know the capability for
// (including every application-registered ClientHandle/ServerHandle method)
// are allowed through; gating those is the application's responsibility.
func (cs *ClientSession) checkCapability(method string) error {
	if method != methodSetLevel {
		return nil
	}
	res := cs.InitializeResult()
	if res == nil || res.Capabilities == nil || res.Capabilities.Logging == nil {
		return &CodedError{Code: CodeInvalidRequest, Message: "server does not advertise the logging capability"}
	}
	return nil
}

// Ping sends a ping request to the server and waits for its reply.
func (cs *ClientSession) Ping(ctx context.Context) error {
	return cs.engine.call(ctx, methodPing, &PingParams{}, &PingResult{})
}

// Call issues a request for method to the server and waits for its reply,
// unmarshaling the result into result. This is the extension point for
// application-level methods registered on the server with [ServerHandle],
// symmetric with how [ServerSession.Call] reaches methods a [Client]
// registers with [ClientHandle].
func (cs *ClientSession) Call(ctx context.Context, method string, params Params, result Result, opts ...CallOption) error {
	return cs.engine.call(ctx, method, params, result, opts...)
}

// SetLoggingLevel asks the server to send only log messages at or above
// level.
func (cs *ClientSession) SetLoggingLevel(ctx context.Context, level LoggingLevel) error {
	return cs.engine.call(ctx, methodSetLevel, &SetLoggingLevelParams{Level: level}, &SetLoggingLevelResult{})
}

// NotifyProgress sends a progress update to the server for an in-flight
// request that carried a progress token.
func (cs *ClientSession) NotifyProgress(ctx context.Context, params *ProgressNotificationParams) error {
	return cs.engine.notify(ctx, notificationProgress, params)
}

// Close terminates the session's connection and stops its background read
// loop.
func (cs *ClientSession) Close() error {
	err := cs.conn.Close()
	if cs.cancelRun != nil {
		cs.cancelRun()
	}
	return err
}
