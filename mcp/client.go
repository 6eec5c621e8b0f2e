// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// clientRequestHandler processes a request or notification a ClientSession
// received, for a method an application registered with [ClientHandle] or
// [ClientHandleNotification] beyond the lifecycle's built-ins.
type clientRequestHandler func(ctx context.Context, cs *ClientSession, raw json.RawMessage) (Result, error)
type clientNotificationHandler func(ctx context.Context, cs *ClientSession, raw json.RawMessage)

// A Client speaks the client side of the MCP lifecycle: it connects to a
// server, drives the "initialize" handshake, and produces a [ClientSession]
// for the resulting connection.
type Client struct {
	impl         Implementation
	capabilities *ClientCapabilities
	opts         ClientOptions

	handlers       map[string]clientRequestHandler
	notifyHandlers map[string]clientNotificationHandler
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Capabilities describes what this client supports. If nil, a client
	// with no optional capabilities is advertised.
	Capabilities *ClientCapabilities

	// Logger receives diagnostic output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// LoggingMessageHandler, if set, is called for every notifications/message
	// the connected server sends.
	LoggingMessageHandler func(context.Context, *ClientRequest[*LoggingMessageParams])

	// ProgressNotificationHandler, if set, is called whenever the server
	// reports progress on a request this client issued to it.
	ProgressNotificationHandler func(context.Context, *ClientRequest[*ProgressNotificationParams])
}

// NewClient creates a Client that identifies itself to servers with impl.
func NewClient(impl *Implementation, opts *ClientOptions) *Client {
	c := &Client{
		handlers:       make(map[string]clientRequestHandler),
		notifyHandlers: make(map[string]clientNotificationHandler),
	}
	if impl != nil {
		c.impl = *impl
	}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.Logger == nil {
		c.opts.Logger = slog.Default()
	}
	c.capabilities = c.opts.Capabilities
	if c.capabilities == nil {
		c.capabilities = &ClientCapabilities{}
	}
	return c
}

// Connect establishes a connection over t and performs the "initialize"
// handshake: it sends an initialize request carrying c's capabilities, and
// once the server replies, sends the notifications/initialized notification
// that completes the lifecycle per spec.md's handshake sequence.
//
// The provided ctx bounds the handshake only; the resulting session's
// background read loop uses context.Background() for its lifetime and is
// torn down by closing the session instead.
func (c *Client) Connect(ctx context.Context, t Transport) (*ClientSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connecting transport: %w", err)
	}
	cs := newClientSession(c, conn)

	runCtx, cancel := context.WithCancel(context.Background())
	cs.cancelRun = cancel
	go cs.engine.run(runCtx)

	result := &InitializeResult{}
	params := &InitializeParams{
		Capabilities:    c.capabilities,
		ClientInfo:      &c.impl,
		ProtocolVersion: LatestProtocolVersion,
	}
	if err := cs.engine.call(ctx, methodInitialize, params, result); err != nil {
		cs.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	cs.mu.Lock()
	cs.initResult = result
	cs.mu.Unlock()
	cs.engine.capabilityGate = cs.checkCapability

	if err := cs.engine.notify(ctx, notificationInitialized, &InitializedParams{}); err != nil {
		cs.Close()
		return nil, fmt.Errorf("mcp: sending initialized notification: %w", err)
	}

	return cs, nil
}

// ClientHandle registers h to serve method for every session c produces,
// beyond the lifecycle's built-in methods (ping, notifications/message,
// notifications/progress). It must be called before the first
// [Client.Connect]; registering concurrently with an active session is not
// safe.
func ClientHandle[P Params, R Result](c *Client, method string, h func(context.Context, *ClientRequest[P]) (R, error)) {
	c.handlers[method] = func(ctx context.Context, cs *ClientSession, raw json.RawMessage) (Result, error) {
		params, err := unmarshalParams[P](raw)
		if err != nil {
			return nil, err
		}
		return h(ctx, &ClientRequest[P]{Session: cs, Params: params})
	}
}

// ClientHandleNotification registers h to serve notifications for method,
// as ClientHandle does for requests.
func ClientHandleNotification[P Params](c *Client, method string, h func(context.Context, *ClientRequest[P])) {
	c.notifyHandlers[method] = func(ctx context.Context, cs *ClientSession, raw json.RawMessage) {
		params, err := unmarshalParams[P](raw)
		if err != nil {
			return
		}
		h(ctx, &ClientRequest[P]{Session: cs, Params: params})
	}
}
