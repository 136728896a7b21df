// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// The connection-serving loop, spec.md §4.5. Shared by both schedulers
// (§4.6) — threaded.go runs serveConnection once per connection and
// epoll_linux.go runs serveOneRequest once per readiness event; the cycle
// itself lives here exactly once. Grounded on
// gorox's server1Conn.serve()/server1Stream.execute() shape: a
// "for persistent { ... }" loop around one pooled connection, adapted to
// this repo's own hook/trie/framing semantics.

package server

import (
	"errors"
	"io"
	"net"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/parser"
	"github.com/flinthttp/flint/httpcore/respond"
	"github.com/flinthttp/flint/httpcore/wire"
)

// runSetupHook is shared by both schedulers: the setup hook runs exactly
// once per accepted connection, before anything else (§4.5 step 2).
func (s *Server) runSetupHook(conn *Connection) ConnectionSetupResult {
	if s.setupHook == nil {
		return Proceed
	}
	return s.setupHook(conn)
}

// serveConnection runs one accepted connection's lifetime to completion
// by repeatedly calling serveOneRequest — the threaded scheduler's shape
// (one goroutine owns the connection until it closes). The epoll
// scheduler instead calls serveOneRequest once per readiness event; see
// epoll_linux.go.
func (s *Server) serveConnection(netConn net.Conn) (stop bool) {
	conn := getConnection()
	conn.onGet(netConn, s.logger, s.readBufferSize)
	defer putConnection(conn)

	var lastErr error
	defer func() {
		if s.teardown != nil {
			s.teardown(conn, lastErr)
		}
		netConn.Close()
	}()

	switch s.runSetupHook(conn) {
	case Drop:
		return false
	case Stop:
		return true
	}

	for {
		keepAlive, hookStop, err := s.serveOneRequest(conn)
		lastErr = err
		if hookStop {
			return true
		}
		if !keepAlive {
			return false
		}
		conn.index++
	}
}

// serveOneRequest runs exactly one request/response cycle on conn (§4.5
// step 3), returning whether the connection may be reused, whether a
// hook asked the scheduler to stop accepting entirely, and any error to
// surface to the teardown hook.
func (s *Server) serveOneRequest(conn *Connection) (keepAlive, hookStop bool, err error) {
	head, consumed, herr := readRequestHead(conn, s.maxRequestHeadSize)
	if herr != nil {
		return false, false, classifyHeadError(conn, herr)
	}
	conn.stashPrefix(consumed)

	if _, hasCL := head.Headers.ContentLength(); head.Headers.IsChunked() && hasCL {
		writeBestEffort(conn, wire.BadRequest)
		return false, false, errs.ErrAmbiguousFraming
	}

	ctx := &RequestContext{
		Method:        head.Method,
		URI:           head.URI,
		Version:       head.Version,
		Headers:       head.Headers,
		conn:          conn,
		trailerPolicy: s.trailerPolicy,
	}
	isHead := head.Method.Code() == wire.MethodHEAD
	res := newResponseHandle(respond.NewWriter(conn.bufw, s.dates, s.logger, head.Version, head.Headers.IsConnectionClose(), isHead))

	if s.preRouting != nil {
		switch s.preRouting(ctx, res, conn) {
		case Drop:
			conn.bufw.Flush()
			return false, false, nil
		case Stop:
			conn.bufw.Flush()
			return false, true, nil
		}
	}

	handler, params, matched := s.trie.Match(head.Method.String(), head.URI.Path())
	ctx.Params = params
	if !matched {
		if fb, ok := s.trie.Fallback(); ok {
			handler = fb
		} else {
			handler = s.defaultFallback
		}
	}

	handlerErr := handler(ctx, res)
	keepAlive = s.finishResponse(conn, res, handlerErr)

	if drainErr := s.drainRequestBody(ctx); drainErr != nil {
		keepAlive = false
	}

	conn.bufw.Flush()
	return keepAlive, false, nil
}

func (s *Server) finishResponse(conn *Connection, res *ResponseHandle, handlerErr error) (keepAlive bool) {
	switch {
	case handlerErr != nil && !res.Consumed():
		res.w.Send0(wire.ServerError, wire.Close())
		return false
	case !res.Consumed():
		s.logger.Warn("handler returned without consuming response handle", "conn", conn.id)
		res.w.Send0(wire.ServerError, wire.Close())
		return false
	case handlerErr != nil:
		// handle already consumed (body started); close without further output.
		return false
	default:
		return !res.shouldClose()
	}
}

// drainRequestBody ensures the request body reader has been fully
// consumed so the connection can be reused, enforcing the 1 MiB default
// drain budget (§4.5 step e).
func (s *Server) drainRequestBody(ctx *RequestContext) error {
	r := ctx.Body()
	limit := s.maxBodySize
	if limit <= 0 {
		return body.Drain(r)
	}
	n, err := io.CopyN(io.Discard, r, limit+1)
	if err != nil && err != io.EOF {
		return err
	}
	if n > limit {
		return &errs.BodyTooLarge{Limit: limit}
	}
	return nil
}

func readRequestHead(conn *Connection, maxHeadSize int) (parser.RequestHead, int, error) {
	for {
		head, consumed, err := parser.ParseRequestHead(conn.readBuf[:conn.filled], maxHeadSize)
		if err == nil {
			return head, consumed, nil
		}
		if !errors.Is(err, errs.ErrIncomplete) {
			return parser.RequestHead{}, 0, err
		}
		if conn.filled == len(conn.readBuf) {
			return parser.RequestHead{}, 0, &errs.HeadTooLarge{Limit: maxHeadSize}
		}
		n, rerr := conn.netConn.Read(conn.readBuf[conn.filled:])
		if n == 0 && rerr != nil {
			if conn.filled == 0 {
				return parser.RequestHead{}, 0, io.EOF // idle keep-alive timeout: silent close
			}
			return parser.RequestHead{}, 0, errs.ErrUnexpectedEOF
		}
		conn.filled += n
	}
}

// classifyHeadError turns a head-parse failure into a best-effort
// response where the grammar allows one, per §7's protocol-error
// taxonomy, and returns the error to report to the teardown hook.
func classifyHeadError(conn *Connection, err error) error {
	if err == io.EOF {
		return nil // idle socket closure before any bytes: silent drop (§4.1)
	}
	var tooLarge *errs.HeadTooLarge
	if errors.As(err, &tooLarge) {
		writeBestEffort(conn, wire.Of(wire.StatusContentTooLarge))
		return err
	}
	if errors.Is(err, errs.ErrUnexpectedEOF) {
		return err
	}
	writeBestEffort(conn, wire.BadRequest)
	return err
}

// writeBestEffort emits a minimal close response when the head parsed
// far enough to know the client is speaking HTTP, ignoring write errors
// since the connection is being torn down regardless. It bypasses
// respond.Writer (that needs a parsed head's version/framing state,
// which is exactly what failed to parse here).
func writeBestEffort(conn *Connection, status wire.Status) {
	io.WriteString(conn.bufw, "HTTP/1.1 "+status.String()+"\r\nConnection: close\r\nContent-Length: 0\r\n\r\n")
	conn.bufw.Flush()
}
