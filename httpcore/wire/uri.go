// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// The request-target, kept verbatim and split lazily. Grounded on
// original_source/src/http/request_uri.rs, generalized to operate on byte
// slices borrowed from the connection's read buffer rather than an owned
// String.

package wire

import "bytes"

// URI holds the request-target exactly as received. Path and query are
// not materialized eagerly; the parser is not required to canonicalise
// or percent-decode anything.
type URI struct {
	raw []byte
}

// NewURI wraps the raw request-target bytes. The slice is not copied.
func NewURI(raw []byte) URI { return URI{raw: raw} }

// Raw returns the request-target exactly as it appeared on the wire.
func (u URI) Raw() []byte { return u.raw }

func (u URI) String() string { return string(u.raw) }

// Path returns the bytes up to the first '?' (or '#', kept for symmetry
// with the original implementation even though fragments never travel
// over the wire from compliant clients).
func (u URI) Path() []byte {
	raw := u.raw
	if i := bytes.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if i := bytes.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// Query returns the bytes after the first '?' and before any '#', or nil
// if there is no query component.
func (u URI) Query() ([]byte, bool) {
	i := bytes.IndexByte(u.raw, '?')
	if i < 0 {
		return nil, false
	}
	rest := u.raw[i+1:]
	if j := bytes.IndexByte(rest, '#'); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

// Fragment returns the bytes after the first '#', if any. See
// SPEC_FULL.md §C.2 — kept for symmetry with the original implementation.
func (u URI) Fragment() ([]byte, bool) {
	i := bytes.IndexByte(u.raw, '#')
	if i < 0 {
		return nil, false
	}
	return u.raw[i+1:], true
}

// IsAsteriskForm reports whether the request-target was the literal "*"
// (used by OPTIONS *).
func (u URI) IsAsteriskForm() bool { return len(u.raw) == 1 && u.raw[0] == '*' }
