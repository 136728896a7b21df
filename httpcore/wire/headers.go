// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Headers is an ordered multimap, grounded on original_source/src/http/headers.rs
// (Headers tracks content-length/chunked/connection-close as a side effect
// of Add so framing decisions never have to rescan the whole list).

package wire

import "strconv"

type headerField struct {
	name  HeaderName
	value HeaderValue
}

// Headers preserves insertion order and duplicates; lookups fold case.
type Headers struct {
	fields          []headerField
	contentLength   int64
	hasContentLen   bool
	chunked         bool
	connectionClose bool
}

// Empty returns a Headers value with no fields set.
func Empty() Headers { return Headers{} }

// Close returns a Headers value carrying only "connection: close",
// matching the original's Headers::close() used for early error
// responses emitted before routing.
func Close() Headers {
	var h Headers
	h.Add(HeaderConnection, HeaderValueString("close"))
	return h
}

// Add appends a field, preserving any existing field of the same name.
// content-length/transfer-encoding/connection are additionally tracked
// so framing code never needs a linear scan.
func (h *Headers) Add(name HeaderName, value HeaderValue) {
	h.fields = append(h.fields, headerField{name, value})
	switch {
	case name.EqualString("content-length"):
		if n, err := strconv.ParseInt(value.String(), 10, 64); err == nil && n >= 0 {
			h.contentLength = n
			h.hasContentLen = true
		}
	case name.EqualString("transfer-encoding"):
		if containsToken(value.String(), "chunked") {
			h.chunked = true
		}
	case name.EqualString("connection"):
		if containsToken(value.String(), "close") {
			h.connectionClose = true
		}
	}
}

// AddString is a convenience for handler code constructing headers.
func (h *Headers) AddString(name, value string) {
	h.Add(HeaderNameString(name), HeaderValueString(value))
}

// Get returns the last field with the given name, matching the original's
// "last write wins" lookup semantics.
func (h Headers) Get(name HeaderName) (HeaderValue, bool) {
	for i := len(h.fields) - 1; i >= 0; i-- {
		if h.fields[i].name.Equal(name) {
			return h.fields[i].value, true
		}
	}
	return HeaderValue{}, false
}

func (h Headers) GetString(name string) (string, bool) {
	v, ok := h.Get(HeaderNameString(name))
	if !ok {
		return "", false
	}
	return v.String(), true
}

// All returns every field with the given name, in insertion order.
func (h Headers) All(name HeaderName) []HeaderValue {
	var out []HeaderValue
	for _, f := range h.fields {
		if f.name.Equal(name) {
			out = append(out, f.value)
		}
	}
	return out
}

// Remove deletes every field with the given name.
func (h *Headers) Remove(name HeaderName) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !f.name.Equal(name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
	switch {
	case name.EqualString("content-length"):
		h.hasContentLen = false
		h.contentLength = 0
	case name.EqualString("transfer-encoding"):
		h.chunked = false
	case name.EqualString("connection"):
		h.connectionClose = false
	}
}

// Len returns the number of fields, duplicates counted individually.
func (h Headers) Len() int { return len(h.fields) }

// Each calls fn for every field in insertion order.
func (h Headers) Each(fn func(name HeaderName, value HeaderValue)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

func (h Headers) ContentLength() (int64, bool) { return h.contentLength, h.hasContentLen }
func (h Headers) IsChunked() bool              { return h.chunked }
func (h Headers) IsConnectionClose() bool      { return h.connectionClose }

func containsToken(csv, token string) bool {
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			part := trimOWS(csv[start:i])
			if equalFold(part, token) {
				return true
			}
			start = i + 1
		}
	}
	return false
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

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
