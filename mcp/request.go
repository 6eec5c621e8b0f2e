// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

// ServerRequest wraps the params of a request or notification the server
// received, together with the ServerSession it arrived on, and is the
// argument type for every server-side handler.
type ServerRequest[P Params] struct {
	Session *ServerSession
	Params  P
}

// ClientRequest wraps the params of a request or notification the client
// received, together with the ClientSession it arrived on, and is the
// argument type for every client-side handler.
type ClientRequest[P Params] struct {
	Session *ClientSession
	Params  P
}
