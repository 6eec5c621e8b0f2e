// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package conformance drives the Streamable HTTP server transport through
// the literal-input scenarios spec.md section 8 describes (S1, S2, S6),
// using fixture request bodies checked into testdata/*.txtar so the wire
// messages under test are reviewable independent of the Go driving code.
package conformance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/mcpcore/go-sdk/mcp"
)

func loadArchive(t *testing.T, name string) map[string][]byte {
	t.Helper()
	ar, err := txtar.ParseFile("testdata/" + name)
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}
	return files
}

func newHandler() *mcp.StreamableHTTPHandler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcp.NewServer(&mcp.Implementation{Name: "conformance-server", Version: "0.0.1"}, nil)
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func post(h http.Handler, body []byte, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://test/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestS1Initialize exercises spec.md section 8 scenario S1: a successful
// initialize must echo a session ID that every later request on the same
// session must then present; omitting it, or presenting an unknown one,
// must be rejected with the codes spec.md section 7 assigns to each case.
func TestS1Initialize(t *testing.T) {
	files := loadArchive(t, "s1_initialize.txtar")
	h := newHandler()

	rec := post(h, files["initialize.json"], "")
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response missing Mcp-Session-Id")
	}
	var initResp struct {
		Result mcp.InitializeResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &initResp); err != nil {
		t.Fatalf("decoding initialize result: %v", err)
	}
	if initResp.Result.ProtocolVersion == "" {
		t.Error("InitializeResult missing protocolVersion")
	}

	// Follow-up without the session header: 400 / CodeServerNotInitialized.
	missing := post(h, files["followup.json"], "")
	if missing.Code != http.StatusBadRequest {
		t.Errorf("no-session follow-up status = %d, want 400; body=%s", missing.Code, missing.Body.String())
	}
	assertErrorCode(t, missing.Body.Bytes(), mcp.CodeServerNotInitialized)

	// Follow-up with the wrong session header: 404 / CodeSessionNotFound.
	wrong := post(h, files["followup.json"], "not-the-session-id")
	if wrong.Code != http.StatusNotFound {
		t.Errorf("wrong-session follow-up status = %d, want 404; body=%s", wrong.Code, wrong.Body.String())
	}
	assertErrorCode(t, wrong.Body.Bytes(), mcp.CodeSessionNotFound)

	// Follow-up with the correct session header: accepted.
	ok := post(h, files["followup.json"], sessionID)
	if ok.Code != http.StatusAccepted {
		t.Errorf("valid-session follow-up status = %d, want 202; body=%s", ok.Code, ok.Body.String())
	}
}

// TestS2NotificationBatch exercises spec.md section 8 scenario S2: a batch
// of only notifications yields 202 with no body, regardless of how many
// elements it holds.
func TestS2NotificationBatch(t *testing.T) {
	files := loadArchive(t, "s2_notification_batch.txtar")
	h := newHandler()

	rec := post(h, files["initialize.json"], "")
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response missing Mcp-Session-Id")
	}

	batchRec := post(h, files["batch.json"], sessionID)
	if batchRec.Code != http.StatusAccepted {
		t.Fatalf("notification batch status = %d, want 202; body=%s", batchRec.Code, batchRec.Body.String())
	}
	if batchRec.Body.Len() != 0 {
		t.Errorf("notification batch body = %q, want empty", batchRec.Body.String())
	}
}

// TestS6SessionTermination exercises spec.md section 8 scenario S6: DELETE
// with a valid session header ends the session; any later request against
// that same session ID must then be rejected as unknown (404), never as
// simply uninitialized (400), since the transport already saw one.
func TestS6SessionTermination(t *testing.T) {
	files := loadArchive(t, "s6_session_termination.txtar")
	h := newHandler()

	rec := post(h, files["initialize.json"], "")
	sessionID := rec.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response missing Mcp-Session-Id")
	}

	delReq := httptest.NewRequest(http.MethodDelete, "http://test/mcp", nil)
	delReq.Header.Set("Mcp-Session-Id", sessionID)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, want 200; body=%s", delRec.Code, delRec.Body.String())
	}

	after := post(h, files["followup.json"], sessionID)
	if after.Code != http.StatusNotFound {
		t.Fatalf("post-termination status = %d, want 404; body=%s", after.Code, after.Body.String())
	}
	assertErrorCode(t, after.Body.Bytes(), mcp.CodeSessionNotFound)
}

func assertErrorCode(t *testing.T, body []byte, want int) {
	t.Helper()
	var errBody struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errBody); err != nil {
		t.Fatalf("decoding error body: %v; body=%s", err, body)
	}
	if errBody.Error.Code != want {
		t.Errorf("error code = %d, want %d", errBody.Error.Code, want)
	}
}
