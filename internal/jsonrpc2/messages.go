// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package jsonrpc2 implements the wire encoding for JSON-RPC 2.0 messages:
// requests, notifications, responses, and batches of the above.
package jsonrpc2

import (
	"encoding/json"
	"fmt"

	ijson "github.com/mcpcore/go-sdk/internal/json"
)

// ID is a JSON-RPC request identifier: a string, a number, or absent.
// The zero ID is not valid; see [ID.IsValid].
type ID struct {
	value any
}

// StringID creates a string-valued request ID.
func StringID(s string) ID { return ID{value: s} }

// Int64ID creates a number-valued request ID.
func Int64ID(i int64) ID { return ID{value: i} }

// IsValid reports whether id was explicitly set. The JSON-RPC spec forbids
// reusing an ID while a request is outstanding on the same sender; the zero
// ID is never emitted on the wire and is used internally to mean "no ID".
func (id ID) IsValid() bool { return id.value != nil }

// Raw returns the underlying string or int64 value, or nil if unset.
func (id ID) Raw() any { return id.value }

// Equal reports whether id and other carry the same value, comparing
// numbers as numbers and strings as strings, per spec.md's Request ID
// invariant.
func (id ID) Equal(other ID) bool { return id.value == other.value }

func (id ID) String() string {
	switch v := id.value.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	return ijson.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	if err := ijson.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		id.value = nil
	case string:
		id.value = x
	case float64:
		id.value = int64(x)
	default:
		return fmt.Errorf("invalid request id %T", v)
	}
	return nil
}

// Message is the interface implemented by every JSON-RPC value this package
// knows how to frame: *Request, *Notification, *Response.
type Message interface {
	// isMessage is unexported, closing the set of implementations.
	isMessage()
}

// Request is a call: it carries an ID and expects exactly one Response.
type Request struct {
	Method string
	ID     ID
	Params json.RawMessage
}

func (*Request) isMessage() {}

// Notification is a one-way call: it carries no ID and receives no Response.
type Notification struct {
	Method string
	Params json.RawMessage
}

func (*Notification) isMessage() {}

// WireError is the error member of a JSON-RPC error response.
type WireError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *WireError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Response is the reply to a Request: exactly one of Result or Error is set.
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  *WireError
}

func (*Response) isMessage() {}

// Batch is an ordered sequence of messages sent or received in a single wire
// frame, per spec.md's JSON-RPC batch support.
type Batch []Message

// NewCall builds a *Request for method with the given already-marshaled
// params.
func NewCall(id ID, method string, params json.RawMessage) *Request {
	return &Request{ID: id, Method: method, Params: params}
}

// NewNotification builds a *Notification for method with the given
// already-marshaled params.
func NewNotification(method string, params json.RawMessage) *Notification {
	return &Notification{Method: method, Params: params}
}

// NewResponse builds a success *Response.
func NewResponse(id ID, result json.RawMessage) *Response {
	return &Response{ID: id, Result: result}
}

// NewErrorResponse builds an error *Response.
func NewErrorResponse(id ID, err *WireError) *Response {
	return &Response{ID: id, Error: err}
}
