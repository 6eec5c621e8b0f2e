// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// serverRequestHandler processes a request or notification a ServerSession
// received, for a method an application registered with [ServerHandle] or
// [ServerHandleNotification] beyond the lifecycle's built-ins.
type serverRequestHandler func(ctx context.Context, ss *ServerSession, raw json.RawMessage) (Result, error)
type serverNotificationHandler func(ctx context.Context, ss *ServerSession, raw json.RawMessage)

// A Server speaks the server side of the MCP lifecycle: it accepts
// connections from clients, negotiates capabilities and protocol version,
// and answers requests for the lifetime of each resulting [ServerSession].
//
// A single Server may be connected to many clients concurrently; each
// [Server.Connect] call produces an independent ServerSession.
type Server struct {
	impl Implementation
	opts ServerOptions

	mu             sync.Mutex
	sessions       map[*ServerSession]struct{}
	handlers       map[string]serverRequestHandler
	notifyHandlers map[string]serverNotificationHandler
	middleware     []Middleware
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// Instructions is a free-form hint returned to clients in
	// InitializeResult, describing how to make best use of the server.
	Instructions string

	// Logger receives diagnostic output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// StateStore persists session state across process restarts. If nil,
	// state is kept only in memory and is lost when the process exits.
	StateStore ServerSessionStateStore

	// LoggingMessageHandler, if set, is called for every log message a
	// ServerSession is asked to emit at or above a client's requested
	// logging/setLevel, in place of the default behavior of forwarding it
	// to the client as notifications/message.
	LoggingMessageHandler func(context.Context, *ServerRequest[*LoggingMessageParams]) error

	// ProgressNotificationHandler, if set, is called whenever a client
	// reports progress on a request the server issued to it.
	ProgressNotificationHandler func(context.Context, *ServerRequest[*ProgressNotificationParams])
}

// NewServer creates a Server that identifies itself to clients with impl.
func NewServer(impl *Implementation, opts *ServerOptions) *Server {
	s := &Server{
		sessions:       make(map[*ServerSession]struct{}),
		handlers:       make(map[string]serverRequestHandler),
		notifyHandlers: make(map[string]serverNotificationHandler),
	}
	if impl != nil {
		s.impl = *impl
	}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.Logger == nil {
		s.opts.Logger = slog.Default()
	}
	return s
}

// capabilities reports the capabilities this server advertises during
// initialization.
func (s *Server) capabilities() *ServerCapabilities {
	return &ServerCapabilities{Logging: &LoggingCapabilities{}}
}

// Connect accepts a connection over t, performing no handshake itself: the
// client drives the "initialize" handshake by issuing that request, which
// this server answers like any other registered method. Connect returns as
// soon as the transport-level connection is established; the returned
// ServerSession's background read loop continues until the connection
// closes.
func (s *Server) Connect(ctx context.Context, t Transport) (*ServerSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: connecting transport: %w", err)
	}
	ss := newServerSession(s, conn)

	s.mu.Lock()
	s.sessions[ss] = struct{}{}
	s.mu.Unlock()

	go func() {
		ss.engine.run(ctx)
		s.mu.Lock()
		delete(s.sessions, ss)
		s.mu.Unlock()
	}()

	return ss, nil
}

// ServerHandle registers h to serve method for every session s produces,
// beyond the lifecycle's built-in methods (initialize, ping,
// logging/setLevel). It must be called before the first [Server.Connect];
// registering concurrently with an active session is not safe.
//
// This is the extension point an application builds business-level methods
// on top of (tools, resources, prompts, or a domain-specific protocol),
// since this core defines only the lifecycle handshake.
func ServerHandle[P Params, R Result](s *Server, method string, h func(context.Context, *ServerRequest[P]) (R, error)) {
	s.handlers[method] = func(ctx context.Context, ss *ServerSession, raw json.RawMessage) (Result, error) {
		params, err := unmarshalParams[P](raw)
		if err != nil {
			return nil, err
		}
		return h(ctx, &ServerRequest[P]{Session: ss, Params: params})
	}
}

// ServerHandleNotification registers h to serve notifications for method,
// as ServerHandle does for requests.
func ServerHandleNotification[P Params](s *Server, method string, h func(context.Context, *ServerRequest[P])) {
	s.notifyHandlers[method] = func(ctx context.Context, ss *ServerSession, raw json.RawMessage) {
		params, err := unmarshalParams[P](raw)
		if err != nil {
			return
		}
		h(ctx, &ServerRequest[P]{Session: ss, Params: params})
	}
}

// newParams allocates a zero value of P, which must be a pointer type
// implementing Params (true of every params type this core and its
// extensions define).
func newParams[P Params]() P {
	var zero P
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Ptr {
		panic("mcp: P must be a pointer type implementing Params")
	}
	return reflect.New(t.Elem()).Interface().(P)
}

func unmarshalParams[P Params](raw json.RawMessage) (P, error) {
	p := newParams[P]()
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		var zero P
		return zero, &CodedError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return p, nil
}

// Use appends mw to the chain wrapped around every request method this
// server answers, including the lifecycle built-ins (initialize, ping,
// logging/setLevel) and every method registered with [ServerHandle]. The
// first Middleware passed to Use runs outermost. It must be called before
// the first [Server.Connect]; registering concurrently with an active
// session is not safe.
func (s *Server) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// Sessions returns the sessions currently connected to s.
func (s *Server) Sessions() []*ServerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ServerSession, 0, len(s.sessions))
	for ss := range s.sessions {
		out = append(out, ss)
	}
	return out
}
