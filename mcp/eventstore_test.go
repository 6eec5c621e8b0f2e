// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"testing"
)

func TestMemoryEventStoreAppendAfter(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()

	for i, data := range [][]byte{[]byte("a"), []byte("b"), []byte("c")} {
		idx, err := s.Append(ctx, "sess1", 0, data)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if idx != i {
			t.Errorf("Append returned index %d, want %d", idx, i)
		}
	}

	got, err := s.After(ctx, "sess1", 0, 0)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "c" {
		t.Errorf("After(0) = %q, want [b c]", got)
	}

	got, err = s.After(ctx, "sess1", 0, -1)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("After(-1) = %q, want all 3 events", got)
	}

	got, err = s.After(ctx, "sess1", 0, 2)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("After(2) = %q, want empty", got)
	}
}

func TestMemoryEventStoreUnknownSession(t *testing.T) {
	s := NewMemoryEventStore()
	if _, err := s.After(context.Background(), "nope", 0, 0); err == nil {
		t.Error("After on unknown session succeeded, want error")
	}
}

func TestMemoryEventStoreStreamsIndependent(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	s.Append(ctx, "sess1", 0, []byte("x"))
	s.Append(ctx, "sess1", 1, []byte("y"))

	got0, _ := s.After(ctx, "sess1", 0, -1)
	got1, _ := s.After(ctx, "sess1", 1, -1)
	if len(got0) != 1 || string(got0[0]) != "x" {
		t.Errorf("stream 0 = %q, want [x]", got0)
	}
	if len(got1) != 1 || string(got1[0]) != "y" {
		t.Errorf("stream 1 = %q, want [y]", got1)
	}
}

func TestMemoryEventStoreClearSession(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	s.Append(ctx, "sess1", 0, []byte("x"))
	if err := s.ClearSession(ctx, "sess1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := s.After(ctx, "sess1", 0, -1); err == nil {
		t.Error("After after ClearSession succeeded, want error (session unknown)")
	}
}

func TestMemoryEventStoreAppendMutationIsolation(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	data := []byte("mutable")
	s.Append(ctx, "sess1", 0, data)
	data[0] = 'X' // mutate caller's slice after Append

	got, err := s.After(ctx, "sess1", 0, -1)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if string(got[0]) != "mutable" {
		t.Errorf("stored event = %q, want %q (Append must copy)", got[0], "mutable")
	}
}
