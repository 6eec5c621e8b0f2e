// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc2

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"request with string id", &Request{Method: "initialize", ID: StringID("abc"), Params: json.RawMessage(`{"x":1}`)}},
		{"request with int id", &Request{Method: "ping", ID: Int64ID(42), Params: json.RawMessage(`{}`)}},
		{"notification", &Notification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)}},
		{"success response", &Response{ID: Int64ID(1), Result: json.RawMessage(`{"ok":true}`)}},
		{"error response", &Response{ID: Int64ID(1), Error: &WireError{Code: -32601, Message: "method not found"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeMessage(tt.msg)
			if err != nil {
				t.Fatalf("EncodeMessage: %v", err)
			}
			got, err := DecodeMessage(data)
			if err != nil {
				t.Fatalf("DecodeMessage: %v", err)
			}
			switch want := tt.msg.(type) {
			case *Request:
				gr, ok := got.(*Request)
				if !ok {
					t.Fatalf("got %T, want *Request", got)
				}
				if gr.Method != want.Method || !gr.ID.Equal(want.ID) {
					t.Errorf("got %+v, want %+v", gr, want)
				}
			case *Notification:
				gn, ok := got.(*Notification)
				if !ok {
					t.Fatalf("got %T, want *Notification", got)
				}
				if gn.Method != want.Method {
					t.Errorf("got %+v, want %+v", gn, want)
				}
			case *Response:
				gresp, ok := got.(*Response)
				if !ok {
					t.Fatalf("got %T, want *Response", got)
				}
				if !gresp.ID.Equal(want.ID) {
					t.Errorf("id mismatch: got %v, want %v", gresp.ID, want.ID)
				}
				if (want.Error == nil) != (gresp.Error == nil) {
					t.Errorf("error presence mismatch: got %v, want %v", gresp.Error, want.Error)
				}
			}
		})
	}
}

func TestDecodeBatchSingleAndArray(t *testing.T) {
	single := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":{}}`)
	msgs, isBatch, err := DecodeBatch(single)
	if err != nil {
		t.Fatalf("DecodeBatch(single): %v", err)
	}
	if isBatch {
		t.Error("isBatch = true for a single object")
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	batch := []byte(`[{"jsonrpc":"2.0","id":1,"method":"ping","params":{}},{"jsonrpc":"2.0","method":"notifications/initialized","params":{}}]`)
	msgs, isBatch, err = DecodeBatch(batch)
	if err != nil {
		t.Fatalf("DecodeBatch(array): %v", err)
	}
	if !isBatch {
		t.Error("isBatch = false for a JSON array")
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
}

func TestDecodeBatchEmptyArray(t *testing.T) {
	_, _, err := DecodeBatch([]byte(`[]`))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("DecodeBatch([]) error = %v, want wrapping ErrInvalidRequest", err)
	}
}

func TestDecodeBatchEmptyBody(t *testing.T) {
	_, _, err := DecodeBatch([]byte(`   `))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("DecodeBatch(whitespace) error = %v, want wrapping ErrInvalidRequest", err)
	}
}

func TestDecodeMessageRejectsMissingVersion(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"id":1,"method":"ping","params":{}}`))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want wrapping ErrInvalidRequest", err)
	}
}

func TestDecodeMessageRejectsEmptyObject(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0"}`))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want wrapping ErrInvalidRequest", err)
	}
}

func TestIDEqual(t *testing.T) {
	if !Int64ID(1).Equal(Int64ID(1)) {
		t.Error("Int64ID(1) != Int64ID(1)")
	}
	if Int64ID(1).Equal(Int64ID(2)) {
		t.Error("Int64ID(1) == Int64ID(2)")
	}
	if Int64ID(1).Equal(StringID("1")) {
		t.Error("Int64ID(1) == StringID(\"1\"), number and string ids must not compare equal")
	}
	if !StringID("a").Equal(StringID("a")) {
		t.Error("StringID(a) != StringID(a)")
	}
}

func TestEncodeBatch(t *testing.T) {
	batch := Batch{
		&Request{Method: "ping", ID: Int64ID(1), Params: json.RawMessage(`{}`)},
		&Notification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)},
	}
	data, err := EncodeBatch(batch)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	msgs, isBatch, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch(EncodeBatch(...)): %v", err)
	}
	if !isBatch || len(msgs) != 2 {
		t.Errorf("got isBatch=%v len=%d, want true, 2", isBatch, len(msgs))
	}
}
