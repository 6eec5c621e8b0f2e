// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/mcpcore/go-sdk/internal/jsonrpc2"
)

// StdioTransport is a Transport that frames JSON-RPC messages as one per
// line on r and w: the newline-delimited encoding MCP servers use when
// launched as a subprocess and spoken to over stdin/stdout.
//
// A server normally constructs this with os.Stdin and os.Stdout; a client
// that spawns its own server subprocess should use [NewCommandTransport]
// instead, which also manages the child process's lifetime.
type StdioTransport struct {
	r io.Reader
	w io.Writer
}

// NewStdioTransport returns a Transport that reads newline-delimited
// JSON-RPC messages from r and writes them to w.
func NewStdioTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{r: r, w: w}
}

// Connect implements the [Transport] interface.
func (t *StdioTransport) Connect(ctx context.Context) (Connection, error) {
	return newIOConn(t.r, t.w, nil), nil
}

// CommandTransport is a Transport that spawns cmd and communicates with it
// over its stdin and stdout, using the same newline-delimited framing as
// StdioTransport. Closing the resulting Connection closes the child's
// stdin and waits for it to exit.
type CommandTransport struct {
	cmd *exec.Cmd
}

// NewCommandTransport returns a Transport that runs cmd as a subprocess and
// speaks MCP over its stdin and stdout. cmd must not have been started.
func NewCommandTransport(cmd *exec.Cmd) *CommandTransport {
	return &CommandTransport{cmd: cmd}
}

// Connect implements the [Transport] interface: it starts the subprocess
// and returns a Connection over its stdin/stdout pipes.
func (t *CommandTransport) Connect(ctx context.Context) (Connection, error) {
	stdin, err := t.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: getting subprocess stdin: %w", err)
	}
	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: getting subprocess stdout: %w", err)
	}
	if err := t.cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp: starting subprocess: %w", err)
	}
	return newIOConn(stdout, stdin, func() error {
		stdin.Close()
		return t.cmd.Wait()
	}), nil
}

// ioConn implements [Connection] over a reader and writer framed as one
// JSON-RPC message per line, with a background goroutine feeding decoded
// messages to Read, mirroring the incoming-channel pattern used by the
// streamable and in-memory transports in this package.
type ioConn struct {
	w       io.Writer
	writeMu sync.Mutex

	incoming chan JSONRPCMessage
	done     chan struct{}

	closeOnce sync.Once
	onClose   func() error // closes/waits on the underlying process or streams
}

func newIOConn(r io.Reader, w io.Writer, onClose func() error) *ioConn {
	c := &ioConn{
		w:        w,
		incoming: make(chan JSONRPCMessage, 64),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
	go c.readLoop(r)
	return c
}

// readLoop scans newline-delimited messages from r until it hits EOF, an
// unrecoverable scan error, or the connection is closed. A line that fails
// to decode as a JSON-RPC message is dropped rather than ending the
// connection, since a single corrupt line from a misbehaving peer shouldn't
// take down an otherwise healthy session.
func (c *ioConn) readLoop(r io.Reader) {
	defer close(c.incoming)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := jsonrpc2.DecodeMessage(line)
		if err != nil {
			continue
		}
		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

// Read implements the [Connection] interface.
func (c *ioConn) Read(ctx context.Context) (JSONRPCMessage, error) {
	select {
	case msg, ok := <-c.incoming:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, io.EOF
	}
}

// Write implements the [Connection] interface.
func (c *ioConn) Write(ctx context.Context, msg JSONRPCMessage) error {
	data, err := jsonrpc2.EncodeMessage(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.w.Write(data)
	return err
}

// Close implements the [Connection] interface.
func (c *ioConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.onClose != nil {
			err = c.onClose()
		}
	})
	return err
}

func (c *ioConn) SessionID() string { return "" }
