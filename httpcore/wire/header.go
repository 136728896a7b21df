// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// HeaderName and HeaderValue: ASCII-case-insensitive names, arbitrary-octet
// values. Interned constants follow gorox's pre-hashed field name table
// (hemi/web_general.go's "hashes of web fields") but spelled out as plain
// string constants rather than additive-hash codes, since this repo's
// router/printer paths don't need the hash shortcut gorox's wire codec does.

package wire

import "strings"

// HeaderName is an ASCII-case-insensitive token.
type HeaderName struct {
	b []byte
}

// NewHeaderName wraps name bytes as received (borrowed, not copied).
func NewHeaderName(b []byte) HeaderName { return HeaderName{b: b} }

// HeaderNameString interns a handler-supplied literal name.
func HeaderNameString(s string) HeaderName { return HeaderName{b: []byte(s)} }

func (n HeaderName) Bytes() []byte { return n.b }
func (n HeaderName) String() string { return string(n.b) }

// Equal compares names case-insensitively.
func (n HeaderName) Equal(o HeaderName) bool {
	return strings.EqualFold(string(n.b), string(o.b))
}

// EqualString compares against a lower/mixed-case literal case-insensitively.
func (n HeaderName) EqualString(s string) bool {
	return len(n.b) == len(s) && strings.EqualFold(string(n.b), s)
}

// foldKey returns a lower-cased string suitable as a map key. Allocates
// only when the name actually contains upper-case bytes.
func (n HeaderName) foldKey() string {
	for _, c := range n.b {
		if c >= 'A' && c <= 'Z' {
			return strings.ToLower(string(n.b))
		}
	}
	return string(n.b)
}

// HeaderValue is an arbitrary octet sequence. The parser rejects CR/LF in
// received values; Headers.Add does not check handler-supplied values for
// CR/LF.
type HeaderValue struct {
	b []byte
}

func NewHeaderValue(b []byte) HeaderValue  { return HeaderValue{b: b} }
func HeaderValueString(s string) HeaderValue { return HeaderValue{b: []byte(s)} }

func (v HeaderValue) Bytes() []byte  { return v.b }
func (v HeaderValue) String() string { return string(v.b) }

// Pre-interned header names for the handful of fields the core itself
// inspects. Mirrors gorox's bytesHost/bytesContentLength/etc. constants.
var (
	HeaderHost             = HeaderNameString("host")
	HeaderContentLength    = HeaderNameString("content-length")
	HeaderTransferEncoding = HeaderNameString("transfer-encoding")
	HeaderConnection       = HeaderNameString("connection")
	HeaderDate             = HeaderNameString("date")
	HeaderContentType      = HeaderNameString("content-type")
)
