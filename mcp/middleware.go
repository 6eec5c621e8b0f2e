// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// Request is the method, session, and still-raw params a MethodHandler
// receives for one request a ServerSession is dispatching.
type Request struct {
	Session *ServerSession
	Method  string
	Params  json.RawMessage
}

// MethodHandler answers one request a ServerSession received, for any
// method including the lifecycle built-ins. It is the unit Middleware
// wraps, so cross-cutting concerns (logging, rate limiting, auditing) apply
// uniformly across every method instead of each handler implementing them.
type MethodHandler func(ctx context.Context, req *Request) (Result, error)

// Middleware wraps a MethodHandler to produce another.
type Middleware func(MethodHandler) MethodHandler

// addMiddleware wraps h in mw, applying mw[0] outermost so middleware run
// in the order they were passed to [Server.Use].
func addMiddleware(h MethodHandler, mw []Middleware) MethodHandler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// RateLimit returns Middleware that rejects a request with CodeRequestTimeout's
// sibling in the generic protocol bucket once limiter's token bucket is
// exhausted, instead of invoking the wrapped handler. limiter is shared
// across every session the Server in question serves, the way a single
// process-wide budget applies regardless of which client is asking.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next MethodHandler) MethodHandler {
		return func(ctx context.Context, req *Request) (Result, error) {
			if !limiter.Allow() {
				return nil, &CodedError{
					Code:    CodeRateLimitExceeded,
					Message: fmt.Sprintf("rate limit exceeded for method %q", req.Method),
				}
			}
			return next(ctx, req)
		}
	}
}
