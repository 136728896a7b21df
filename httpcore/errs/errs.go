// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Sentinel and typed errors shared across the core. Replaces the
// original's HttpParsingError enum (original_source/src/parser/mod.rs)
// with errors.Is/As-friendly Go values, per SPEC_FULL.md §A.2.

package errs

import "errors"

var (
	// ErrIncomplete signals the parser needs more bytes; the caller
	// refills the read buffer and retries. Never surfaced to a hook.
	ErrIncomplete = errors.New("httpcore: incomplete request head")

	// ErrUnexpectedEOF signals the socket closed mid-head.
	ErrUnexpectedEOF = errors.New("httpcore: unexpected eof reading head")

	// ErrAlreadySent signals a ResponseHandle was consumed twice.
	ErrAlreadySent = errors.New("httpcore: response already sent")

	// ErrHandleUnconsumed signals a handler returned without consuming
	// its ResponseHandle.
	ErrHandleUnconsumed = errors.New("httpcore: response handle not consumed")

	// ErrAmbiguousFraming signals a request carrying both Content-Length
	// and Transfer-Encoding.
	ErrAmbiguousFraming = errors.New("httpcore: both content-length and transfer-encoding present")
)

// HeadTooLarge is returned when a request head exceeds the configured
// ceiling, whether or not it has terminated.
type HeadTooLarge struct{ Limit int }

func (e *HeadTooLarge) Error() string { return "httpcore: request head exceeds configured limit" }

// BodyTooLarge is returned by the body reader's drain helpers when the
// convenience-read ceiling is exceeded.
type BodyTooLarge struct{ Limit int64 }

func (e *BodyTooLarge) Error() string { return "httpcore: body exceeds configured limit" }

// Malformed wraps a grammar violation with the offending reason.
type Malformed struct{ Reason string }

func (e *Malformed) Error() string { return "httpcore: malformed request: " + e.Reason }

func NewMalformed(reason string) error { return &Malformed{Reason: reason} }
