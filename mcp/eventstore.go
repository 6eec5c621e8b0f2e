// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"fmt"
	"sync"
)

// EventStore persists the events of a Streamable HTTP session's logical
// SSE streams, so that a StreamableServerTransport can replay events after
// "Last-Event-ID" when a client reconnects, independent of whether the
// transport instance that produced them is still in memory.
//
// Implementations must be safe for concurrent use.
type EventStore interface {
	// Append records data as the next event on the logical stream named by
	// sessionID and streamID, returning the new event's index within that
	// stream.
	Append(ctx context.Context, sessionID string, streamID int64, data []byte) (index int, err error)

	// After returns the events recorded on the given stream strictly after
	// index, in order. A caller passes the index parsed from a client's
	// "Last-Event-ID" header to resume a dropped connection.
	After(ctx context.Context, sessionID string, streamID int64, index int) ([][]byte, error)

	// ClearSession discards all events associated with sessionID, called
	// when a session is deleted or expires.
	ClearSession(ctx context.Context, sessionID string) error
}

// MemoryEventStore is an in-process EventStore with no eviction policy
// beyond ClearSession; it is the default used by StreamableHTTPHandler when
// no store is configured, matching the event-store guarantee ("resumable
// for the lifetime of the process").
type MemoryEventStore struct {
	mu      sync.Mutex
	streams map[string]map[int64][][]byte // sessionID -> streamID -> events
}

// NewMemoryEventStore returns an empty MemoryEventStore.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{streams: make(map[string]map[int64][][]byte)}
}

func (s *MemoryEventStore) Append(ctx context.Context, sessionID string, streamID int64, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.streams[sessionID]
	if !ok {
		session = make(map[int64][][]byte)
		s.streams[sessionID] = session
	}
	cp := append([]byte(nil), data...)
	session[streamID] = append(session[streamID], cp)
	return len(session[streamID]) - 1, nil
}

func (s *MemoryEventStore) After(ctx context.Context, sessionID string, streamID int64, index int) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.streams[sessionID]
	if !ok {
		return nil, fmt.Errorf("mcp: unknown session %q", sessionID)
	}
	events := session[streamID]
	start := index + 1
	if start < 0 {
		start = 0
	}
	if start >= len(events) {
		return nil, nil
	}
	out := make([][]byte, len(events)-start)
	copy(out, events[start:])
	return out, nil
}

func (s *MemoryEventStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.streams, sessionID)
	s.mu.Unlock()
	return nil
}
