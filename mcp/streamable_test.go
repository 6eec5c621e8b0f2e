// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcpcore/go-sdk/internal/jsonrpc2"
)

func testServer() *Server {
	return NewServer(&Implementation{Name: "test-server", Version: "0.0.1"}, nil)
}

func initializeBody(t *testing.T) []byte {
	t.Helper()
	req := &JSONRPCRequest{
		Method: methodInitialize,
		ID:     JSONRPCID(jsonrpc2.Int64ID(1)),
	}
	params := &InitializeParams{
		ProtocolVersion: LatestProtocolVersion,
		ClientInfo:      &Implementation{Name: "test-client", Version: "0.0.1"},
		Capabilities:    &ClientCapabilities{},
	}
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshaling InitializeParams: %v", err)
	}
	req.Params = raw
	data, err := encodeMessage(req)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	return data
}

func postRequest(method, url string, body []byte, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestStreamableInitializeJSONResponseMode(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, &StreamableHTTPOptions{JSONResponse: true})

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", initializeBody(t), nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("missing Mcp-Session-Id header")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp struct {
		Result InitializeResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v; body=%s", err, rec.Body.String())
	}
	if resp.Result.ProtocolVersion == "" {
		t.Error("missing protocolVersion in InitializeResult")
	}
}

func TestStreamableDuplicateInitializeRejected(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, &StreamableHTTPOptions{JSONResponse: true})

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", initializeBody(t), nil)
	h.ServeHTTP(rec, req)
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("missing Mcp-Session-Id header")
	}

	rec2 := httptest.NewRecorder()
	req2 := postRequest(http.MethodPost, "http://test/mcp", initializeBody(t), map[string]string{"Mcp-Session-Id": sessionID})
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec2.Code, rec2.Body.String())
	}
	var errBody struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errBody.Error.Code != CodeInvalidRequest {
		t.Errorf("error code = %d, want %d", errBody.Error.Code, CodeInvalidRequest)
	}
}

func TestStreamableBatchMixingInitializeRejected(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	ping := &JSONRPCRequest{Method: "ping", ID: jsonrpc2.Int64ID(2), Params: json.RawMessage(`{}`)}
	pingData, err := encodeMessage(ping)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	batch := append(append([]byte("["), initializeBody(t)...), append([]byte(","), append(pingData, ']')...)...)

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", batch, nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
}

func TestStreamableNotificationOnlyBatchReturns202(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", initializeBody(t), nil)
	h.ServeHTTP(rec, req)
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("missing Mcp-Session-Id header")
	}

	notif := &JSONRPCNotification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)}
	data, err := encodeMessage(notif)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	rec2 := httptest.NewRecorder()
	req2 := postRequest(http.MethodPost, "http://test/mcp", data, map[string]string{"Mcp-Session-Id": sessionID})
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body=%s", rec2.Code, rec2.Body.String())
	}
}

func TestStreamablePostMissingSessionRejected(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	notif := &JSONRPCNotification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)}
	data, err := encodeMessage(notif)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", data, nil)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errBody.Error.Code != CodeServerNotInitialized {
		t.Errorf("error code = %d, want %d", errBody.Error.Code, CodeServerNotInitialized)
	}
}

func TestStreamablePostUnknownSessionRejected(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	notif := &JSONRPCNotification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)}
	data, err := encodeMessage(notif)
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", data, map[string]string{"Mcp-Session-Id": "bogus-session"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errBody.Error.Code != CodeSessionNotFound {
		t.Errorf("error code = %d, want %d", errBody.Error.Code, CodeSessionNotFound)
	}
}

func TestStreamableGetMissingSessionRejected(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://test/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
}

func TestStreamableDeleteTerminatesSession(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := postRequest(http.MethodPost, "http://test/mcp", initializeBody(t), nil)
	h.ServeHTTP(rec, req)
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("missing Mcp-Session-Id header")
	}

	delRec := httptest.NewRecorder()
	delReq := httptest.NewRequest(http.MethodDelete, "http://test/mcp", nil)
	delReq.Header.Set("Mcp-Session-Id", sessionID)
	h.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, want 200; body=%s", delRec.Code, delRec.Body.String())
	}

	// Reusing the session afterward must fail as unknown.
	rec2 := httptest.NewRecorder()
	notif := &JSONRPCNotification{Method: "notifications/initialized", Params: json.RawMessage(`{}`)}
	data, _ := encodeMessage(notif)
	req2 := postRequest(http.MethodPost, "http://test/mcp", data, map[string]string{"Mcp-Session-Id": sessionID})
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusNotFound {
		t.Fatalf("post-DELETE status = %d, want 404; body=%s", rec2.Code, rec2.Body.String())
	}
}

func TestStreamableRejectsBadAccept(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://test/mcp", bytes.NewReader(initializeBody(t)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json") // missing text/event-stream
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("status = %d, want 406", rec.Code)
	}
}

func TestStreamableRejectsBadContentType(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://test/mcp", bytes.NewReader(initializeBody(t)))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json, text/event-stream")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestStreamableRejectsUnsupportedMethod(t *testing.T) {
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return testServer() }, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "http://test/mcp", nil)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
