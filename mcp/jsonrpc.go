// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "github.com/mcpcore/go-sdk/internal/jsonrpc2"

// JSON-RPC 2.0 wire types, aliased onto internal/jsonrpc2 so that every
// mcp transport shares one wire representation without an import cycle
// (internal/jsonrpc2 has no dependency on mcp).
type (
	// JSONRPCMessage is any JSON-RPC 2.0 message: a request, a notification,
	// or a response.
	JSONRPCMessage = jsonrpc2.Message
	// JSONRPCRequest is a call that expects exactly one JSONRPCResponse.
	JSONRPCRequest = jsonrpc2.Request
	// JSONRPCNotification is a one-way call that receives no response.
	JSONRPCNotification = jsonrpc2.Notification
	// JSONRPCResponse is the reply to a JSONRPCRequest.
	JSONRPCResponse = jsonrpc2.Response
	// JSONRPCID is a JSON-RPC request identifier.
	JSONRPCID = jsonrpc2.ID
	// JSONRPCBatch is an ordered sequence of messages sent or received in a
	// single wire frame.
	JSONRPCBatch = jsonrpc2.Batch
)

var (
	encodeMessage = jsonrpc2.EncodeMessage
	decodeMessage = jsonrpc2.DecodeMessage
)

// readBatch parses a raw HTTP body into the JSON-RPC messages it contains,
// reporting whether the body was a JSON array (a batch) or a single object.
func readBatch(body []byte) (JSONRPCBatch, bool, error) {
	return jsonrpc2.DecodeBatch(body)
}
