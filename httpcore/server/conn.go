// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Connection: socket, read/write buffers, request index, keep-alive flag
// (spec.md §3). Grounded on gorox's server1Conn (hemi/web_http1_server.go):
// a sync.Pool-recycled connection object with an onGet/onPut lifecycle and
// a "serve" loop running while c.persistent holds, adapted here to this
// repo's own framing/trie/hook semantics instead of gorox's multi-protocol
// gateway shell.

package server

import (
	"bufio"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

var connIDs atomic.Int64

var poolConnection sync.Pool

func getConnection() *Connection {
	if v := poolConnection.Get(); v != nil {
		return v.(*Connection)
	}
	return &Connection{}
}

func putConnection(c *Connection) {
	c.reset()
	poolConnection.Put(c)
}

// Connection tracks one accepted socket across its whole lifetime: a
// reused fixed-capacity read buffer, a buffered writer, a monotonically
// increasing per-connection request index starting at 0, and whether the
// next cycle may reuse the socket (§3).
type Connection struct {
	id      int64
	traceID uuid.UUID
	log     hclog.Logger

	netConn net.Conn
	bufw    *bufio.Writer

	readBuf []byte // reused across requests, never reallocated (§9)
	filled  int    // bytes currently buffered in readBuf

	prefixBuf []byte // leftover-after-head scratch, reused across requests
	prefixLen int

	index int64
}

// ID returns the process-wide connection identifier.
func (c *Connection) ID() int64 { return c.id }

// TraceID returns the opaque per-connection trace id used only in log
// fields (SPEC_FULL.md §B), distinct from Index.
func (c *Connection) TraceID() uuid.UUID { return c.traceID }

// Index returns the current request index, strictly increasing per
// connection starting at 0 (§8 property 8).
func (c *Connection) Index() int64 { return c.index }

// RemoteAddr exposes the underlying socket's peer address, for setup
// hooks that want to log or filter by it.
func (c *Connection) RemoteAddr() net.Addr { return c.netConn.RemoteAddr() }

// RawConn exposes the underlying net.Conn so a setup hook can adjust
// socket options (TCP_NODELAY, deadlines) per §6 "left to the setup hook".
func (c *Connection) RawConn() net.Conn { return c.netConn }

func (c *Connection) onGet(netConn net.Conn, log hclog.Logger, readBufSize int) {
	c.id = connIDs.Add(1)
	c.traceID = uuid.New()
	c.log = log
	c.netConn = netConn
	c.bufw = bufio.NewWriter(netConn)
	if cap(c.readBuf) < readBufSize {
		c.readBuf = make([]byte, readBufSize)
	}
	if cap(c.prefixBuf) < readBufSize {
		c.prefixBuf = make([]byte, readBufSize)
	}
	c.filled = 0
	c.prefixLen = 0
	c.index = 0
}

func (c *Connection) reset() {
	c.netConn = nil
	c.bufw = nil
	c.filled = 0
	c.prefixLen = 0
	c.index = 0
}

// bodySource returns an io.Reader yielding, in order, any bytes already
// buffered past the parsed head, then the raw socket. Constructed fresh
// per request since the prefix is consumed exactly once.
func (c *Connection) bodySource() io.Reader {
	if c.prefixLen == 0 {
		return c.netConn
	}
	return &prefixReader{prefix: c.prefixBuf[:c.prefixLen], conn: c.netConn}
}

// stashPrefix copies any unconsumed bytes following a parsed head out of
// readBuf and resets readBuf to empty, satisfying the "reset, don't
// reallocate" buffer-reuse rule (§9) while keeping the head parser's
// zero-copy cursor discipline intact for the next cycle.
func (c *Connection) stashPrefix(consumed int) {
	leftover := c.filled - consumed
	if leftover > 0 {
		copy(c.prefixBuf[:leftover], c.readBuf[consumed:c.filled])
	}
	c.prefixLen = leftover
	c.filled = 0
}

type prefixReader struct {
	prefix []byte
	conn   net.Conn
}

func (r *prefixReader) Read(p []byte) (int, error) {
	if len(r.prefix) > 0 {
		n := copy(p, r.prefix)
		r.prefix = r.prefix[n:]
		return n, nil
	}
	return r.conn.Read(p)
}
