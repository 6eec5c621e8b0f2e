// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mcpcore/go-sdk/internal/mcpgodebug"
	"github.com/mcpcore/go-sdk/internal/util"
)

// RateLimiterOptions configures per-client request rate limiting for
// [RateLimitHandler].
type RateLimiterOptions struct {
	// RequestsPerSecond is the sustained rate of HTTP requests, of any
	// method, allowed per remote address. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the maximum burst size above RequestsPerSecond. If zero and
	// RequestsPerSecond is nonzero, a burst of 1 is used.
	Burst int
	// ExemptLoopback skips rate limiting for loopback remote addresses
	// (127.0.0.1, ::1, localhost), useful for local development and tests
	// that proxy through localhost.
	ExemptLoopback bool
}

// rateLimiterSet holds one token-bucket limiter per remote address.
type rateLimiterSet struct {
	opts RateLimiterOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// newRateLimiterSet returns a rateLimiterSet from opts, or nil if rate
// limiting is disabled (RequestsPerSecond == 0, or the MCPGODEBUG
// ratelimit=0 compatibility override is set).
func newRateLimiterSet(opts RateLimiterOptions) *rateLimiterSet {
	if opts.RequestsPerSecond <= 0 {
		return nil
	}
	if mcpgodebug.Value("ratelimit") == "0" {
		return nil
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &rateLimiterSet{opts: opts, limiters: make(map[string]*rate.Limiter)}
}

func (s *rateLimiterSet) limiterFor(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.opts.RequestsPerSecond), s.opts.Burst)
		s.limiters[addr] = l
	}
	return l
}

// allow reports whether a request from addr may proceed.
func (s *rateLimiterSet) allow(addr string) bool {
	if s.opts.ExemptLoopback && util.IsLoopback(addr) {
		return true
	}
	return s.limiterFor(addr).Allow()
}

// RateLimitHandler wraps h with per-remote-address rate limiting, rejecting
// requests over the limit with 429 Too Many Requests. It returns h
// unmodified if opts disables limiting.
//
// This guards the transport: a flood of HTTP connections never reaches a
// session at all. [RateLimit] guards the protocol layer instead, throttling
// already-established sessions per method call; use that one to install
// rate limiting via [Server.Use].
func RateLimitHandler(h http.Handler, opts RateLimiterOptions) http.Handler {
	set := newRateLimiterSet(opts)
	if set == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !set.allow(req.RemoteAddr) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, req)
	})
}
