// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package jsonrpc exposes the JSON-RPC 2.0 wire types used by the mcp
// package's transports, so that custom [mcp.Connection] implementations
// outside this module can encode and decode messages without reaching into
// an internal package.
package jsonrpc

import "github.com/mcpcore/go-sdk/internal/jsonrpc2"

type (
	// ID is a JSON-RPC request identifier.
	ID = jsonrpc2.ID
	// Message is the interface satisfied by Request, Notification, and
	// Response.
	Message = jsonrpc2.Message
	// Request is a call: it carries an ID and expects exactly one Response.
	Request = jsonrpc2.Request
	// Notification is a one-way call: it carries no ID and receives no
	// Response.
	Notification = jsonrpc2.Notification
	// Response is the reply to a Request.
	Response = jsonrpc2.Response
	// WireError is the error member of an error Response.
	WireError = jsonrpc2.WireError
	// Batch is an ordered sequence of messages sent or received in a single
	// wire frame.
	Batch = jsonrpc2.Batch
)

var (
	// StringID creates a string-valued request ID.
	StringID = jsonrpc2.StringID
	// Int64ID creates a number-valued request ID.
	Int64ID = jsonrpc2.Int64ID

	// NewCall builds a *Request for method with the given already-marshaled
	// params.
	NewCall = jsonrpc2.NewCall
	// NewNotification builds a *Notification for method with the given
	// already-marshaled params.
	NewNotification = jsonrpc2.NewNotification
	// NewResponse builds a success *Response.
	NewResponse = jsonrpc2.NewResponse
	// NewErrorResponse builds an error *Response.
	NewErrorResponse = jsonrpc2.NewErrorResponse

	// EncodeMessage serializes a single message to its JSON-RPC 2.0 wire
	// form.
	EncodeMessage = jsonrpc2.EncodeMessage
	// EncodeBatch serializes a Batch, always as a JSON array.
	EncodeBatch = jsonrpc2.EncodeBatch
	// DecodeMessage parses a single JSON-RPC 2.0 object into a Request,
	// Notification, or Response.
	DecodeMessage = jsonrpc2.DecodeMessage
	// DecodeBatch parses raw bytes into either a single Message or a Batch.
	DecodeBatch = jsonrpc2.DecodeBatch

	// ErrParse corresponds to the JSON-RPC -32700 Parse error.
	ErrParse = jsonrpc2.ErrParse
	// ErrInvalidRequest corresponds to the JSON-RPC -32600 Invalid Request
	// error.
	ErrInvalidRequest = jsonrpc2.ErrInvalidRequest
)
