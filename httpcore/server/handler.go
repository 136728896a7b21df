// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Handler contract and the two values a handler is called with
// (RequestContext, ResponseHandle), spec.md §3 and §6. Grounded on
// original_source/src/server/mod.rs's Handler trait, collapsed to a
// single function type the way gorox prefers static dispatch over a
// trait object for request handling (hemi/web_general.go's Handle
// type alias).

package server

import (
	"io"
	"sync"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/respond"
	"github.com/flinthttp/flint/httpcore/router"
	"github.com/flinthttp/flint/httpcore/wire"
)

// Handler is the uniform callable every route and fallback resolves to.
// Returning an error before the handle is consumed makes the connection
// loop send a 500 with Connection: close and close the connection;
// returning one after the handle was consumed closes the connection with
// no further output.
type Handler func(ctx *RequestContext, res *ResponseHandle) error

// RequestContext is the handler's read-only view of one request. Its
// Method/URI/Headers/Params fields borrow the connection's read buffer
// and the match's capture set; they are valid only until the handler
// returns (§3 invariants).
type RequestContext struct {
	Method  wire.Method
	URI     wire.URI
	Version int
	Headers wire.Headers
	Params  *router.Params

	conn          *Connection
	trailerPolicy body.TrailerPolicy
	bodyOnce      sync.Once
	bodyR         io.Reader
	bodyErr       error
}

// Body lazily constructs the streaming request-body reader the first
// time it's called, per §3 "a lazily-constructed body() yielding a
// streaming byte reader". A request with both Content-Length and
// Transfer-Encoding is rejected in serveOneRequest before a handler ever
// runs, so NewRequestReader's own ambiguous-framing check never trips
// here. If the body turns out to be chunked and a TrailerPolicy was
// configured (SPEC_FULL.md §C.4), it is attached before the first byte
// is read.
func (c *RequestContext) Body() io.Reader {
	c.bodyOnce.Do(func() {
		c.bodyR, c.bodyErr = body.NewRequestReader(c.Headers, c.conn.bodySource())
		if c.bodyErr == nil && c.trailerPolicy != nil {
			body.WithTrailerPolicyIfChunked(c.bodyR, c.trailerPolicy)
		}
	})
	if c.bodyErr != nil {
		return errorReader{c.bodyErr}
	}
	return c.bodyR
}

type errorReader struct{ err error }

func (r errorReader) Read([]byte) (int, error) { return 0, r.err }

// ResponseHandle binds one handler invocation to its outgoing response.
// It must be consumed exactly once; a second call fails with
// errs.ErrAlreadySent (§3).
type ResponseHandle struct {
	w        *respond.Writer
	consumed bool
}

func newResponseHandle(w *respond.Writer) *ResponseHandle {
	return &ResponseHandle{w: w}
}

// Consumed reports whether one of Send/SendSized/Ok/Send0/OkR has been
// called. SendContinue does not count — it is an interim response, not
// the final one (SPEC_FULL.md §C.5).
func (r *ResponseHandle) Consumed() bool { return r.consumed }

func (r *ResponseHandle) Send(status wire.Status, headers wire.Headers, bodyReader io.Reader) error {
	if r.consumed {
		return errs.ErrAlreadySent
	}
	r.consumed = true
	return r.w.Send(status, headers, bodyReader)
}

func (r *ResponseHandle) SendSized(status wire.Status, headers wire.Headers, bodyReader io.Reader, n int64) error {
	if r.consumed {
		return errs.ErrAlreadySent
	}
	r.consumed = true
	return r.w.SendSized(status, headers, bodyReader, n)
}

func (r *ResponseHandle) Ok(headers wire.Headers, bodyReader io.Reader) error {
	if r.consumed {
		return errs.ErrAlreadySent
	}
	r.consumed = true
	return r.w.Ok(headers, bodyReader)
}

func (r *ResponseHandle) Send0(status wire.Status, headers wire.Headers) error {
	if r.consumed {
		return errs.ErrAlreadySent
	}
	r.consumed = true
	return r.w.Send0(status, headers)
}

func (r *ResponseHandle) OkR(headers wire.Headers, bodyReader io.Reader) error {
	if r.consumed {
		return errs.ErrAlreadySent
	}
	r.consumed = true
	return r.w.OkR(headers, bodyReader)
}

// SendContinue emits a "100 Continue" interim response (SPEC_FULL.md
// §C.5); opt-in, never automatic per spec.md §9 Open Questions.
func (r *ResponseHandle) SendContinue() error {
	return r.w.SendContinue()
}

func (r *ResponseHandle) shouldClose() bool { return r.w.ShouldClose() }
