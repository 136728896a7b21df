// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Body reader engine. Grounded on original_source/src/body_reader.rs:
// the same three-way selection (chunked / fixed-length / pass-through)
// expressed as io.Reader implementations instead of a closed enum, the
// idiomatic-Go replacement for Rust's BodyReader<R> match.

package body

import (
	"io"

	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/wire"
)

// NewRequestReader selects the body-reading strategy for a request
// entity per spec.md §4.2:
//  1. Transfer-Encoding: chunked -> chunked decoder
//  2. Content-Length: N -> identity reader capped at N
//  3. otherwise -> empty reader (a request body must be explicitly framed)
//
// A request carrying both headers is a framing ambiguity (400 Bad
// Request) and returns errs.ErrAmbiguousFraming.
func NewRequestReader(h wire.Headers, src io.Reader) (io.Reader, error) {
	chunked := h.IsChunked()
	cl, hasCL := h.ContentLength()
	if chunked && hasCL {
		return nil, errs.ErrAmbiguousFraming
	}
	switch {
	case chunked:
		return newChunkedReader(src), nil
	case hasCL:
		return &identityReader{src: src, remaining: cl}, nil
	default:
		return emptyReader{}, nil
	}
}

// NewResponseReader is the client-side counterpart: a response without
// either framing header is legal and runs until the peer closes the
// connection (RFC 7230 §3.3.3 rule 7), so the fallback here is a
// pass-through reader rather than an empty one.
func NewResponseReader(h wire.Headers, src io.Reader) (io.Reader, error) {
	chunked := h.IsChunked()
	cl, hasCL := h.ContentLength()
	if chunked && hasCL {
		return nil, errs.ErrAmbiguousFraming
	}
	switch {
	case chunked:
		return newChunkedReader(src), nil
	case hasCL:
		return &identityReader{src: src, remaining: cl}, nil
	default:
		return src, nil
	}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

type identityReader struct {
	src       io.Reader
	remaining int64
}

func (r *identityReader) Read(p []byte) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.src.Read(p)
	r.remaining -= int64(n)
	if err == io.EOF && r.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

// Drain reads r to completion, discarding bytes, so the underlying
// connection's body has been fully consumed and the connection can be
// reused for the next request (spec.md §4.5 step e).
func Drain(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	if err == io.EOF {
		return nil
	}
	return err
}

// ReadAll drains r into memory, enforcing maxBytes (0 = unbounded),
// failing with *errs.BodyTooLarge when exceeded. The idiomatic-Go
// replacement for the original's string()/vec() convenience helpers.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	limited := io.LimitReader(r, maxBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) > maxBytes {
		return nil, &errs.BodyTooLarge{Limit: maxBytes}
	}
	return buf, nil
}
