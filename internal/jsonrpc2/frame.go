// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc2

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	ijson "github.com/mcpcore/go-sdk/internal/json"
)

// ErrParse corresponds to the JSON-RPC -32700 Parse error: malformed JSON.
var ErrParse = errors.New("parse error")

// ErrInvalidRequest corresponds to the JSON-RPC -32600 Invalid Request
// error: well-formed JSON that is not a valid JSON-RPC 2.0 message.
var ErrInvalidRequest = errors.New("invalid request")

const wireVersion = "2.0"

// wireCombined is the superset wire shape used to decode any one of
// Request, Notification, or Response without knowing in advance which it
// is, following the same trick as golang-tools' jsonrpc2_v2.
type wireCombined struct {
	VersionTag string          `json:"jsonrpc"`
	ID         *ID             `json:"id,omitempty"`
	Method     string          `json:"method,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *WireError      `json:"error,omitempty"`
}

// EncodeMessage serializes a single message to its JSON-RPC 2.0 wire form.
func EncodeMessage(msg Message) ([]byte, error) {
	wire := wireCombined{VersionTag: wireVersion}
	switch m := msg.(type) {
	case *Request:
		wire.Method = m.Method
		wire.Params = m.Params
		if m.ID.IsValid() {
			id := m.ID
			wire.ID = &id
		}
	case *Notification:
		wire.Method = m.Method
		wire.Params = m.Params
	case *Response:
		id := m.ID
		wire.ID = &id
		if m.Error != nil {
			wire.Error = m.Error
		} else {
			wire.Result = m.Result
			if wire.Result == nil {
				wire.Result = json.RawMessage("null")
			}
		}
	default:
		return nil, fmt.Errorf("jsonrpc2: unknown message type %T", msg)
	}
	data, err := ijson.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc2: marshaling message: %w", err)
	}
	return data, nil
}

// EncodeBatch serializes a Batch, always as a JSON array even with one
// element, matching the client's explicit batch intent.
func EncodeBatch(batch Batch) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, m := range batch {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := EncodeMessage(m)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// DecodeMessage parses a single JSON-RPC 2.0 object into a Request,
// Notification, or Response. It uses StrictUnmarshal rather than the
// faster internal/json path, since a JSON-RPC message is exactly the kind
// of attacker-controlled input StrictUnmarshal's case-smuggling guard
// exists for.
func DecodeMessage(data []byte) (Message, error) {
	var wire wireCombined
	if err := StrictUnmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if wire.VersionTag != wireVersion {
		return nil, fmt.Errorf("%w: missing or invalid jsonrpc version %q", ErrInvalidRequest, wire.VersionTag)
	}
	switch {
	case wire.Method != "" && wire.ID != nil:
		return &Request{Method: wire.Method, ID: *wire.ID, Params: wire.Params}, nil
	case wire.Method != "":
		return &Notification{Method: wire.Method, Params: wire.Params}, nil
	case wire.ID != nil:
		return &Response{ID: *wire.ID, Result: wire.Result, Error: wire.Error}, nil
	default:
		return nil, fmt.Errorf("%w: message has neither method nor id", ErrInvalidRequest)
	}
}

// DecodeBatch parses raw bytes into either a single Message or a Batch,
// reporting which via isBatch. Partial failure of one element fails the
// whole batch, per spec.md §4.1.
func DecodeBatch(data []byte) (msgs Batch, isBatch bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if trimmed[0] != '[' {
		m, err := DecodeMessage(trimmed)
		if err != nil {
			return nil, false, err
		}
		return Batch{m}, false, nil
	}
	var raws []json.RawMessage
	if err := ijson.Unmarshal(trimmed, &raws); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(raws) == 0 {
		return nil, true, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}
	out := make(Batch, len(raws))
	for i, raw := range raws {
		m, err := DecodeMessage(raw)
		if err != nil {
			return nil, true, fmt.Errorf("batch element %d: %w", i, err)
		}
		out[i] = m
	}
	return out, true, nil
}
