// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Request-head parser. Grounded on original_source/src/parser/request.rs
// (method/target/version split) and original_source/src/parser/mod.rs
// (header-line loop), restructured as a cursor over a caller-owned buffer
// the way gorox's _http1In_.recvHeaderLines walks r.input (hemi/web_general_http1.go)
// rather than building an owned String per field.

package parser

import (
	"bytes"

	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/wire"
)

// RequestHead is the parser's output. Method/URI/Headers borrow buf; the
// caller (the connection loop) must keep buf alive until the handler
// returns, per the data-model invariant in spec.md §3.
type RequestHead struct {
	Method  wire.Method
	URI     wire.URI
	Version int // 0 = HTTP/1.0, 1 = HTTP/1.1, 2 = unknown/other
	Headers wire.Headers
}

// ParseRequestHead parses exactly one request head out of buf, starting
// at offset 0. It returns the number of bytes consumed (where the body,
// if any, begins) and leaves buf untouched.
//
// errs.ErrIncomplete is returned when buf does not yet hold a full head
// and has not reached maxHeadSize; the caller should refill buf and
// retry. Once len(buf) reaches maxHeadSize without a complete head, a
// *errs.HeadTooLarge is returned instead; a complete head longer than
// maxHeadSize bytes also yields *errs.HeadTooLarge.
func ParseRequestHead(buf []byte, maxHeadSize int) (RequestHead, int, error) {
	var head RequestHead

	sp1 := indexSP(buf, 0)
	if sp1 < 0 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	if sp1 == 0 || sp1 > 32 {
		return head, 0, errs.NewMalformed("invalid method token length")
	}
	method, ok := wire.ParseMethod(buf[:sp1])
	if !ok {
		return head, 0, errs.NewMalformed("invalid method token")
	}
	head.Method = method

	sp2 := indexSP(buf, sp1+1)
	if sp2 < 0 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	target := buf[sp1+1 : sp2]
	if len(target) == 0 {
		return head, 0, errs.NewMalformed("empty request-target")
	}
	for _, c := range target {
		if c <= 0x20 || c == 0x7f {
			return head, 0, errs.NewMalformed("invalid byte in request-target")
		}
	}
	head.URI = wire.NewURI(target)

	lineEnd, termLen := indexCRLF(buf, sp2+1)
	if lineEnd < 0 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	version, ok := parseVersion(buf[sp2+1 : lineEnd])
	if !ok {
		return head, 0, errs.NewMalformed("invalid HTTP version")
	}
	head.Version = version

	cursor := lineEnd + termLen
	headers, next, err := parseHeaderLines(buf, cursor, maxHeadSize)
	if err != nil {
		return head, 0, err
	}
	head.Headers = headers
	return head, next, nil
}

func parseVersion(b []byte) (int, bool) {
	switch {
	case bytes.Equal(b, []byte("HTTP/1.0")):
		return 0, true
	case bytes.Equal(b, []byte("HTTP/1.1")):
		return 1, true
	}
	if len(b) >= 5 && bytes.Equal(b[:5], []byte("HTTP/")) {
		return 2, true
	}
	return 0, false
}

func parseHeaderLines(buf []byte, cursor, maxHeadSize int) (wire.Headers, int, error) {
	var headers wire.Headers
	for {
		if cursor >= len(buf) {
			return headers, 0, needMore(buf, maxHeadSize)
		}
		// obsolete line folding: a header section line starting with
		// SP/HTAB continues the previous field. Rejected outright (§4.1).
		if buf[cursor] == ' ' || buf[cursor] == '\t' {
			return headers, 0, errs.NewMalformed("obsolete line folding")
		}
		lineEnd, termLen := indexCRLF(buf, cursor)
		if lineEnd < 0 {
			return headers, 0, needMore(buf, maxHeadSize)
		}
		if lineEnd == cursor {
			// blank line: end of header section
			next := lineEnd + termLen
			if maxHeadSize > 0 && next > maxHeadSize {
				return headers, 0, &errs.HeadTooLarge{Limit: maxHeadSize}
			}
			return headers, next, nil
		}
		line := buf[cursor:lineEnd]
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return headers, 0, errs.NewMalformed("missing ':' in header field")
		}
		nameBytes := line[:colon]
		if scanToken(nameBytes, 0, isHeaderNameByte) != len(nameBytes) {
			return headers, 0, errs.NewMalformed("invalid header field name")
		}
		value := trimOWSBytes(line[colon+1:])
		for _, c := range value {
			if c == '\r' || c == '\n' {
				return headers, 0, errs.NewMalformed("CR/LF in header field value")
			}
		}
		headers.Add(wire.NewHeaderName(nameBytes), wire.NewHeaderValue(value))
		cursor = lineEnd + termLen
	}
}

func isHeaderNameByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func trimOWSBytes(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func needMore(buf []byte, maxHeadSize int) error {
	if maxHeadSize > 0 && len(buf) >= maxHeadSize {
		return &errs.HeadTooLarge{Limit: maxHeadSize}
	}
	return errs.ErrIncomplete
}
