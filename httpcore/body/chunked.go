// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Chunked transfer-coding decoder. State machine named per spec.md §4.2:
// ReadChunkSize -> ReadChunkData(n) -> ReadChunkCrLf -> {ReadChunkSize |
// ReadTrailers} -> Done. Grounded on original_source/src/body_reader.rs's
// ChunkedReader, generalized to call an optional trailer policy instead
// of silently discarding (SPEC_FULL.md §C.4).

package body

import (
	"bufio"
	"io"
	"strconv"

	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/wire"
)

type chunkState int

const (
	stateReadChunkSize chunkState = iota
	stateReadChunkData
	stateReadChunkCRLF
	stateReadTrailers
	stateDone
)

// TrailerPolicy is called once, with every trailer field parsed after the
// terminating chunk, purely for observation (framing has already been
// decided by the time trailers arrive). A nil policy discards trailers
// silently, the spec's default (§4.2, §9 Open Questions).
type TrailerPolicy func(wire.Headers)

type chunkedReader struct {
	src      *bufio.Reader
	state    chunkState
	remain   int64
	policy   TrailerPolicy
	trailers wire.Headers
}

func newChunkedReader(src io.Reader) *chunkedReader {
	return &chunkedReader{src: bufio.NewReader(src), state: stateReadChunkSize}
}

// WithTrailerPolicy installs a callback invoked with any trailer fields
// once the terminating chunk has been read.
func (r *chunkedReader) WithTrailerPolicy(p TrailerPolicy) *chunkedReader {
	r.policy = p
	return r
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	for {
		switch r.state {
		case stateReadChunkSize:
			n, err := r.readChunkSizeLine()
			if err != nil {
				return 0, err
			}
			r.remain = n
			if n == 0 {
				r.state = stateReadTrailers
			} else {
				r.state = stateReadChunkData
			}
		case stateReadChunkData:
			if r.remain == 0 {
				r.state = stateReadChunkCRLF
				continue
			}
			if int64(len(p)) > r.remain {
				p = p[:r.remain]
			}
			n, err := r.src.Read(p)
			if n == 0 && err == nil {
				continue
			}
			if err != nil && err != io.EOF {
				return n, err
			}
			if n == 0 {
				return 0, io.ErrUnexpectedEOF
			}
			r.remain -= int64(n)
			return n, nil
		case stateReadChunkCRLF:
			var crlf [2]byte
			if _, err := io.ReadFull(r.src, crlf[:]); err != nil {
				return 0, io.ErrUnexpectedEOF
			}
			if crlf != [2]byte{'\r', '\n'} {
				return 0, errs.NewMalformed("missing CRLF after chunk data")
			}
			r.state = stateReadChunkSize
		case stateReadTrailers:
			if err := r.readTrailers(); err != nil {
				return 0, err
			}
			r.state = stateDone
			if r.policy != nil {
				r.policy(r.trailers)
			}
			return 0, io.EOF
		case stateDone:
			return 0, io.EOF
		}
	}
}

// readChunkSizeLine reads "<hex>[;ext...]\r\n", at most 16 hex digits
// (spec.md §4.2: "Chunk sizes are hex (max 16 digits)").
func (r *chunkedReader) readChunkSizeLine() (int64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	hexPart := line
	for i, c := range line {
		if c == ';' {
			hexPart = line[:i]
			break
		}
	}
	if len(hexPart) == 0 || len(hexPart) > 16 {
		return 0, errs.NewMalformed("bad chunk size")
	}
	n, err := strconv.ParseInt(string(hexPart), 16, 64)
	if err != nil || n < 0 {
		return 0, errs.NewMalformed("bad chunk size")
	}
	return n, nil
}

func (r *chunkedReader) readTrailers() error {
	for {
		line, err := r.readLine()
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
		colon := -1
		for i, c := range line {
			if c == ':' {
				colon = i
				break
			}
		}
		if colon <= 0 {
			return errs.NewMalformed("invalid trailer field")
		}
		name := wire.NewHeaderName([]byte(line[:colon]))
		value := wire.NewHeaderValue([]byte(trimOWS(line[colon+1:])))
		r.trailers.Add(name, value)
	}
	// unreachable, loop returns explicitly; Read fires the policy once this returns
}

// readLine reads one CRLF- or LF-terminated line, stripping the
// terminator, tolerating lenient LF-only endings per spec.md §4.1.
func (r *chunkedReader) readLine() (string, error) {
	raw, err := r.src.ReadString('\n')
	if err != nil {
		return "", io.ErrUnexpectedEOF
	}
	raw = raw[:len(raw)-1] // drop '\n'
	if len(raw) > 0 && raw[len(raw)-1] == '\r' {
		raw = raw[:len(raw)-1]
	}
	return raw, nil
}

func trimOWS(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

// Trailers returns any trailer fields collected once the chunked body
// has been fully read.
func (r *chunkedReader) Trailers() wire.Headers { return r.trailers }

// WithTrailerPolicyIfChunked installs p on r if r is a chunked reader,
// a no-op otherwise. Lets callers attach a policy without type-asserting
// the io.Reader returned by NewRequestReader themselves.
func WithTrailerPolicyIfChunked(r io.Reader, p TrailerPolicy) {
	if cr, ok := r.(*chunkedReader); ok {
		cr.policy = p
	}
}
