// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"io"
	"sync"
)

// NewInMemoryTransports returns two Transports connected by a pair of pipes,
// one for each direction. It is intended for testing a client and server in
// the same process without touching any real I/O: connecting the first
// Transport gives one end of the pipe, connecting the second gives the
// other.
func NewInMemoryTransports() (clientTransport, serverTransport Transport) {
	c2s := newInMemoryPipe()
	s2c := newInMemoryPipe()
	return &inMemoryTransport{write: c2s, read: s2c},
		&inMemoryTransport{write: s2c, read: c2s}
}

// inMemoryPipe is a closable channel of messages flowing in one direction,
// buffered to 64 messages; send blocks while the buffer is full until a
// message is received or ctx is done.
type inMemoryPipe struct {
	mu     sync.Mutex
	closed bool
	ch     chan JSONRPCMessage
}

func newInMemoryPipe() *inMemoryPipe {
	return &inMemoryPipe{ch: make(chan JSONRPCMessage, 64)}
}

func (p *inMemoryPipe) send(ctx context.Context, msg JSONRPCMessage) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}
	select {
	case p.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *inMemoryPipe) receive(ctx context.Context) (JSONRPCMessage, error) {
	select {
	case msg, ok := <-p.ch:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *inMemoryPipe) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}

type inMemoryTransport struct {
	write, read *inMemoryPipe
}

func (t *inMemoryTransport) Connect(context.Context) (Connection, error) {
	return &inMemoryConnection{write: t.write, read: t.read}, nil
}

// inMemoryConnection is a Connection over a pair of inMemoryPipes. It has no
// session semantics: SessionID always returns the empty string.
type inMemoryConnection struct {
	write, read *inMemoryPipe
	closeOnce   sync.Once
}

func (c *inMemoryConnection) Read(ctx context.Context) (JSONRPCMessage, error) {
	return c.read.receive(ctx)
}

func (c *inMemoryConnection) Write(ctx context.Context, msg JSONRPCMessage) error {
	return c.write.send(ctx, msg)
}

func (c *inMemoryConnection) Close() error {
	c.closeOnce.Do(func() {
		c.write.close()
	})
	return nil
}

func (c *inMemoryConnection) SessionID() string { return "" }
