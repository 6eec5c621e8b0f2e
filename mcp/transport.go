// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "context"

// A Transport connects to an MCP peer, returning a Connection that speaks
// JSON-RPC 2.0 over whatever medium the transport implements: stdio, an
// in-memory pipe, Streamable HTTP, or WebSocket.
type Transport interface {
	// Connect establishes the connection and returns the resulting
	// Connection. Connect may be called at most once for a given Transport.
	Connect(ctx context.Context) (Connection, error)
}

// A Connection is a logical JSON-RPC 2.0 connection to a peer: something
// that can send and receive messages. A Connection is not necessarily
// backed by a single network connection; the Streamable HTTP
// implementation fans a Connection out across multiple HTTP requests.
type Connection interface {
	// Read reads the next message from the peer. It blocks until a message
	// is available, ctx is done, or the connection is closed, in which case
	// it returns io.EOF.
	Read(ctx context.Context) (JSONRPCMessage, error)

	// Write sends a message to the peer.
	Write(ctx context.Context, msg JSONRPCMessage) error

	// Close terminates the connection. Concurrent or subsequent Read/Write
	// calls should fail. Close may be called more than once; only the first
	// call has effect.
	Close() error

	// SessionID returns the negotiated session identifier for this
	// connection, or the empty string if the underlying transport does not
	// have session semantics (stdio, in-memory).
	SessionID() string
}
