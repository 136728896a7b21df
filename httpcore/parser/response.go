// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Response-head parser, used only by httpcore/client. Grounded on
// original_source/src/parser/response.rs.

package parser

import (
	"github.com/flinthttp/flint/httpcore/errs"
	"github.com/flinthttp/flint/httpcore/wire"
)

// ResponseHead is the client-side counterpart of RequestHead.
type ResponseHead struct {
	Version int
	Status  wire.Status
	Headers wire.Headers
}

// ParseResponseHead parses a status line plus headers, mirroring
// ParseRequestHead's incremental/incomplete contract.
func ParseResponseHead(buf []byte, maxHeadSize int) (ResponseHead, int, error) {
	var head ResponseHead

	sp1 := indexSP(buf, 0)
	if sp1 < 0 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	version, ok := parseVersion(buf[:sp1])
	if !ok {
		return head, 0, errs.NewMalformed("invalid HTTP version")
	}
	head.Version = version

	if len(buf) < sp1+4 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	codeBytes := buf[sp1+1 : sp1+4]
	code, ok := parseStatusCode(codeBytes)
	if !ok {
		return head, 0, errs.NewMalformed("invalid status code")
	}
	if len(buf) == sp1+4 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	if buf[sp1+4] != ' ' {
		return head, 0, errs.NewMalformed("missing SP after status code")
	}

	lineEnd, termLen := indexCRLF(buf, sp1+5)
	if lineEnd < 0 {
		return head, 0, needMore(buf, maxHeadSize)
	}
	reason := string(buf[sp1+5 : lineEnd])
	head.Status = wire.Of(code).WithReason(reason)

	cursor := lineEnd + termLen
	headers, next, err := parseHeaderLines(buf, cursor, maxHeadSize)
	if err != nil {
		return head, 0, err
	}
	head.Headers = headers
	return head, next, nil
}

func parseStatusCode(b []byte) (int, bool) {
	if len(b) != 3 {
		return 0, false
	}
	code := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		code = code*10 + int(c-'0')
	}
	return code, true
}
