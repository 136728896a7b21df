// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Minimal HTTP/1.1 client, out of the core per spec.md §1 but built per
// SPEC_FULL.md §C.6/§F: one Client owns exactly one connection at a
// time, grounded on original_source/src/client.rs. It reuses
// httpcore/wire's head-building helpers, httpcore/parser's response-head
// parser, and httpcore/body's reader engine rather than duplicating any
// of them.

package client

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/parser"
	"github.com/flinthttp/flint/httpcore/wire"
)

const defaultMaxHeadSize = 8 * 1024

// Response is the head plus a lazily-drained body reader, mirroring the
// server side's RequestContext/ResponseHandle split.
type Response struct {
	Version int
	Status  wire.Status
	Headers wire.Headers
	Body    io.Reader
}

// Client dials addr on first use and keeps the connection open across
// calls to Do, matching the original's one-socket-per-client shape. It
// is not safe for concurrent use.
type Client struct {
	addr        string
	dialTimeout time.Duration
	maxHeadSize int

	conn net.Conn
	br   *bufio.Reader
}

// New returns a Client that will dial addr lazily on the first Do.
func New(addr string) *Client {
	return &Client{addr: addr, dialTimeout: 10 * time.Second, maxHeadSize: defaultMaxHeadSize}
}

// WithDialTimeout overrides the default 10s dial timeout.
func (c *Client) WithDialTimeout(d time.Duration) *Client {
	c.dialTimeout = d
	return c
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// Do sends method+target with headers and an optional fixed-length body,
// returning the parsed response. A connection that the peer has silently
// idle-closed is retried once with exponential backoff
// (github.com/cenkalti/backoff/v4), per SPEC_FULL.md §F.
func (c *Client) Do(method wire.Method, target string, headers wire.Headers, reqBody io.Reader, reqBodyLen int64) (*Response, error) {
	var resp *Response
	attempt := func() error {
		if err := c.ensureConn(); err != nil {
			return err
		}
		r, err := c.roundTrip(method, target, headers, reqBody, reqBodyLen)
		if err != nil {
			c.Close() // the connection is suspect; force a fresh dial on retry
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ensureConn() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return err
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

func (c *Client) roundTrip(method wire.Method, target string, headers wire.Headers, reqBody io.Reader, reqBodyLen int64) (*Response, error) {
	if err := wire.WriteRequestLine(c.conn, method, target); err != nil {
		return nil, err
	}
	if err := wire.WriteHeaders(c.conn, headers); err != nil {
		return nil, err
	}
	if reqBody != nil && reqBodyLen > 0 {
		if _, err := io.CopyN(c.conn, reqBody, reqBodyLen); err != nil {
			return nil, err
		}
	}

	head, bodySrc, err := c.readHead()
	if err != nil {
		return nil, err
	}
	bodyReader, err := body.NewResponseReader(head.Headers, bodySrc)
	if err != nil {
		return nil, err
	}
	return &Response{Version: head.Version, Status: head.Status, Headers: head.Headers, Body: bodyReader}, nil
}

// readHead accumulates bytes from c.br until a full response head
// parses, returning a reader for whatever comes after it (the response
// body, still buffered in c.br as far as it read ahead).
func (c *Client) readHead() (parser.ResponseHead, io.Reader, error) {
	buf := make([]byte, 0, defaultMaxHeadSize)
	chunk := make([]byte, 512)
	for {
		head, consumed, err := parser.ParseResponseHead(buf, c.maxHeadSize)
		if err == nil {
			return head, io.MultiReader(&leftoverReader{buf[consumed:]}, c.br), nil
		}
		n, rerr := c.br.Read(chunk)
		if n == 0 && rerr != nil {
			return parser.ResponseHead{}, nil, rerr
		}
		buf = append(buf, chunk[:n]...)
	}
}

type leftoverReader struct{ b []byte }

func (r *leftoverReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}
