// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcpcore/go-sdk/internal/jsonrpc2"
	ijson "github.com/mcpcore/go-sdk/internal/json"
)

// requestHandler processes one incoming request's raw params and returns the
// Result to send back to the peer, or an error to report as a JSON-RPC error
// response.
type requestHandler func(ctx context.Context, params json.RawMessage) (Result, error)

// notificationHandler processes one incoming notification's raw params.
// Notifications receive no response, so a handler can only act, not fail
// back to the peer.
type notificationHandler func(ctx context.Context, params json.RawMessage)

// pendingCall is a request this engine issued that is awaiting its response.
type pendingCall struct {
	response chan *jsonrpc2.Response
	// progress receives each notifications/progress the peer sends back for
	// this call's id, if the call was made with WithProgress. nil otherwise.
	// Buffered so dispatchNotification never blocks on a caller that's
	// momentarily busy handling a prior progress update.
	progress chan *ProgressNotificationParams
}

// engine implements the request/response correlation, dispatch, and
// cancellation plumbing shared by [ClientSession] and [ServerSession]. JSON-RPC
// 2.0 and the MCP lifecycle are symmetric in who may call whom, so the same
// machinery serves both directions; ClientSession and ServerSession differ
// only in which methods they register and which handshake they perform
// before starting it.
type engine struct {
	conn   Connection
	logger *slog.Logger

	nextID atomic.Int64

	mu          sync.Mutex
	pending     map[JSONRPCID]*pendingCall
	cancelFuncs map[JSONRPCID]context.CancelFunc // requests this engine is currently executing

	handlers      map[string]requestHandler
	notifications map[string]notificationHandler

	// capabilityGate, if set, is consulted before every outgoing call and
	// must return a non-nil error (normally a *CodedError with
	// CodeInvalidRequest) if method is not permitted by the peer's
	// advertised capabilities. ClientSession installs this once the
	// server's InitializeResult is known; ServerSession does not set it.
	capabilityGate func(method string) error

	closeOnce sync.Once
	done      chan struct{}
	closeErr  error
}

func newEngine(conn Connection, logger *slog.Logger) *engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{
		conn:          conn,
		logger:        logger,
		pending:       make(map[JSONRPCID]*pendingCall),
		cancelFuncs:   make(map[JSONRPCID]context.CancelFunc),
		handlers:      make(map[string]requestHandler),
		notifications: make(map[string]notificationHandler),
		done:          make(chan struct{}),
	}
}

// handle registers h to serve incoming requests for method. It must be
// called before run starts reading from the connection.
func (e *engine) handle(method string, h requestHandler) {
	e.handlers[method] = h
}

// handleNotification registers h to serve incoming notifications for method.
func (e *engine) handleNotification(method string, h notificationHandler) {
	e.notifications[method] = h
}

// CallOption customizes an outgoing request issued by [engine.call].
type CallOption func(*callConfig)

type callConfig struct {
	onProgress      func(*ProgressNotificationParams)
	timeout         time.Duration
	resetOnProgress bool
	maxTotalTimeout time.Duration
}

// WithProgress requests progress notifications for the call, delivered to f
// as they arrive. The request's _meta.progressToken is set to the request's
// own ID so the peer knows to report back.
func WithProgress(f func(*ProgressNotificationParams)) CallOption {
	return func(c *callConfig) { c.onProgress = f }
}

// WithTimeout bounds the call to timeout, resetting the timer on every
// progress notification if resetOnProgress is set. maxTotalTimeout, if
// nonzero, is an absolute ceiling that reset_on_progress never extends past.
func WithTimeout(timeout time.Duration, resetOnProgress bool, maxTotalTimeout time.Duration) CallOption {
	return func(c *callConfig) {
		c.timeout = timeout
		c.resetOnProgress = resetOnProgress
		c.maxTotalTimeout = maxTotalTimeout
	}
}

// call issues a request for method and blocks until a response arrives, ctx
// is done, the connection closes, or a configured timeout elapses. If result
// is non-nil, the response's result is unmarshaled into it.
func (e *engine) call(ctx context.Context, method string, params Params, result Result, opts ...CallOption) error {
	var cfg callConfig
	for _, o := range opts {
		o(&cfg)
	}

	if e.capabilityGate != nil {
		if err := e.capabilityGate(method); err != nil {
			return err
		}
	}

	id := JSONRPCID(jsonrpc2.Int64ID(e.nextID.Add(1)))

	if cfg.onProgress != nil {
		params.SetProgressToken(id.Raw())
	}

	raw, err := ijson.Marshal(params)
	if err != nil {
		return fmt.Errorf("mcp: marshaling %s params: %w", method, err)
	}
	req := jsonrpc2.NewCall(id, method, raw)

	pc := &pendingCall{response: make(chan *jsonrpc2.Response, 1)}
	if cfg.onProgress != nil {
		pc.progress = make(chan *ProgressNotificationParams, 8)
	}
	e.mu.Lock()
	e.pending[id] = pc
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
	}()

	if err := e.conn.Write(ctx, req); err != nil {
		return fmt.Errorf("mcp: writing %s request: %w", method, err)
	}

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	var totalDeadline <-chan time.Time
	if cfg.timeout > 0 {
		timer = time.NewTimer(cfg.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	if cfg.maxTotalTimeout > 0 {
		totalTimer := time.NewTimer(cfg.maxTotalTimeout)
		defer totalTimer.Stop()
		totalDeadline = totalTimer.C
	}

	for {
		select {
		case resp := <-pc.response:
			if resp.Error != nil {
				return resp.Error
			}
			if result != nil && len(resp.Result) > 0 {
				if err := ijson.Unmarshal(resp.Result, result); err != nil {
					return fmt.Errorf("mcp: unmarshaling %s result: %w", method, err)
				}
			}
			return nil
		case <-ctx.Done():
			// Best-effort: tell the peer we're no longer interested. The
			// background context here is deliberate: ctx is already done.
			_ = e.notify(context.Background(), notificationCancelled, &CancelledParams{
				RequestID: id.Raw(),
				Reason:    ctx.Err().Error(),
			})
			return ctx.Err()
		case <-timeoutCh:
			_ = e.notify(context.Background(), notificationCancelled, &CancelledParams{
				RequestID: id.Raw(),
				Reason:    "request timeout",
			})
			return &CodedError{Code: CodeRequestTimeout, Message: fmt.Sprintf("mcp: %s timed out", method)}
		case <-totalDeadline:
			_ = e.notify(context.Background(), notificationCancelled, &CancelledParams{
				RequestID: id.Raw(),
				Reason:    "request timeout",
			})
			return &CodedError{Code: CodeRequestTimeout, Message: fmt.Sprintf("mcp: %s exceeded its total timeout", method)}
		case <-e.done:
			cause := e.closeErr
			if cause == nil {
				cause = io.ErrClosedPipe
			}
			return &CodedError{Code: CodeConnectionClosed, Message: fmt.Sprintf("mcp: %s: connection closed: %v", method, cause)}
		case p := <-pc.progress:
			if cfg.resetOnProgress && timer != nil {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(cfg.timeout)
			}
			cfg.onProgress(p)
		}
	}
}

// notify sends a one-way notification for method.
func (e *engine) notify(ctx context.Context, method string, params Params) error {
	raw, err := ijson.Marshal(params)
	if err != nil {
		return fmt.Errorf("mcp: marshaling %s params: %w", method, err)
	}
	return e.conn.Write(ctx, jsonrpc2.NewNotification(method, raw))
}

// respond sends the reply to an incoming request with the given id.
func (e *engine) respond(ctx context.Context, id JSONRPCID, result Result, rerr error) error {
	if rerr != nil {
		return e.conn.Write(ctx, jsonrpc2.NewErrorResponse(id, toWireError(rerr)))
	}
	raw, err := ijson.Marshal(result)
	if err != nil {
		return e.conn.Write(ctx, jsonrpc2.NewErrorResponse(id, &jsonrpc2.WireError{
			Code:    CodeInternalError,
			Message: fmt.Sprintf("marshaling result: %v", err),
		}))
	}
	return e.conn.Write(ctx, jsonrpc2.NewResponse(id, raw))
}

// toWireError converts a handler error into a JSON-RPC error object,
// preserving the code of a *WireError (or a [CodedError]), reporting a
// [SchemaValidationError] as CodeInvalidParams, and otherwise falling back
// to CodeInternalError.
func toWireError(err error) *jsonrpc2.WireError {
	if we, ok := err.(*jsonrpc2.WireError); ok {
		return we
	}
	var ce *CodedError
	if ok := asCodedError(err, &ce); ok {
		return &jsonrpc2.WireError{Code: int64(ce.Code), Message: ce.Message}
	}
	var sve *SchemaValidationError
	if errors.As(err, &sve) {
		return &jsonrpc2.WireError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &jsonrpc2.WireError{Code: CodeInternalError, Message: err.Error()}
}

func asCodedError(err error, target **CodedError) bool {
	for err != nil {
		if ce, ok := err.(*CodedError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodedError is a handler error that controls the JSON-RPC error code
// reported to the peer, instead of the default CodeInternalError.
type CodedError struct {
	Code    int
	Message string
}

func (e *CodedError) Error() string { return e.Message }

// run reads from the connection until it is closed or ctx is done,
// dispatching requests, responses, and notifications as they arrive. It
// returns the error that ended the loop (io.EOF on a clean close).
func (e *engine) run(ctx context.Context) error {
	var runErr error
	defer func() { e.close(runErr) }()
	for {
		msg, err := e.conn.Read(ctx)
		if err != nil {
			runErr = err
			return err
		}
		switch m := msg.(type) {
		case *jsonrpc2.Request:
			go e.dispatchRequest(ctx, m)
		case *jsonrpc2.Response:
			e.dispatchResponse(m)
		case *jsonrpc2.Notification:
			e.dispatchNotification(ctx, m)
		}
	}
}

func (e *engine) dispatchResponse(resp *jsonrpc2.Response) {
	e.mu.Lock()
	pc, ok := e.pending[resp.ID]
	e.mu.Unlock()
	if !ok {
		e.logger.Warn("mcp: response for unknown request", "id", resp.ID.String())
		return
	}
	pc.response <- resp
}

func (e *engine) dispatchRequest(ctx context.Context, req *jsonrpc2.Request) {
	h, ok := e.handlers[req.Method]
	if !ok {
		e.respond(ctx, req.ID, nil, &jsonrpc2.WireError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		})
		return
	}

	rctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancelFuncs[req.ID] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancelFuncs, req.ID)
		e.mu.Unlock()
		cancel()
	}()

	rctx = context.WithValue(rctx, idContextKey{}, req.ID)
	result, err := h(rctx, req.Params)
	e.respond(ctx, req.ID, result, err)
}

func (e *engine) dispatchNotification(ctx context.Context, n *jsonrpc2.Notification) {
	switch n.Method {
	case notificationCancelled:
		var params CancelledParams
		if err := ijson.Unmarshal(n.Params, &params); err == nil {
			e.cancelIncoming(params.RequestID)
		}
		return
	case notificationProgress:
		var params ProgressNotificationParams
		if err := ijson.Unmarshal(n.Params, &params); err == nil {
			if e.routeProgress(&params) {
				return
			}
		}
		// Unknown or unparseable token: fall through to the generic
		// notifications/progress handler below, if any is registered, per
		// spec.md's "on unknown token, emit on_error (don't throw)".
	}
	h, ok := e.notifications[n.Method]
	if !ok {
		return // per spec.md, unknown notifications are silently ignored
	}
	h(ctx, n.Params)
}

// routeProgress delivers a progress notification to the pending call it
// reports on, identified by its progressToken (which this engine set to that
// call's request ID). It reports whether a matching call was found.
func (e *engine) routeProgress(params *ProgressNotificationParams) bool {
	id, ok := rawToJSONRPCID(params.ProgressToken)
	if !ok {
		return false
	}
	e.mu.Lock()
	pc, ok := e.pending[id]
	e.mu.Unlock()
	if !ok || pc.progress == nil {
		return false
	}
	select {
	case pc.progress <- params:
	default:
		// Caller isn't keeping up; drop rather than block the read loop.
	}
	return true
}

// cancelIncoming cancels the context of an in-flight request this engine is
// handling, identified by the raw JSON-RPC id carried in a
// notifications/cancelled notification.
func (e *engine) cancelIncoming(rawID any) {
	id, ok := rawToJSONRPCID(rawID)
	if !ok {
		return
	}
	e.mu.Lock()
	cancel, ok := e.cancelFuncs[id]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

// rawToJSONRPCID converts a decoded JSON value (string or float64, per
// encoding/json's handling of an `any`-typed id field; int64 for values
// constructed in-process) back into a JSONRPCID.
func rawToJSONRPCID(raw any) (JSONRPCID, bool) {
	switch v := raw.(type) {
	case string:
		return JSONRPCID(jsonrpc2.StringID(v)), true
	case float64:
		return JSONRPCID(jsonrpc2.Int64ID(int64(v))), true
	case int64:
		return JSONRPCID(jsonrpc2.Int64ID(v)), true
	default:
		return JSONRPCID{}, false
	}
}

// close unblocks every pending call and marks the engine done. It is safe to
// call close more than once; only the first call has effect.
func (e *engine) close(err error) {
	e.closeOnce.Do(func() {
		if err == nil {
			err = io.EOF
		}
		e.closeErr = err
		close(e.done)
	})
}
