// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flinthttp/flint/httpcore/errs"
)

func TestParseRequestHeadBasic(t *testing.T) {
	raw := []byte("GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\nX-Trace: abc\r\n\r\nBODY")
	head, consumed, err := ParseRequestHead(raw, 8192)
	require.NoError(t, err)

	assert.Equal(t, "GET", head.Method.String())
	assert.Equal(t, "/hello", string(head.URI.Path()))
	assert.Equal(t, 1, head.Version)
	v, ok := head.Headers.GetString("host")
	require.True(t, ok)
	assert.Equal(t, "example.com", v)
	assert.Equal(t, "BODY", string(raw[consumed:]))
}

func TestParseRequestHeadLenientLFOnly(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\nHost: example.com\n\n")
	_, consumed, err := ParseRequestHead(raw, 8192)
	require.NoError(t, err)
	assert.Equal(t, len(raw), consumed)
}

func TestParseRequestHeadIncompleteRequestsMore(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example")
	_, _, err := ParseRequestHead(raw, 8192)
	assert.ErrorIs(t, err, errs.ErrIncomplete)
}

func TestParseRequestHeadTooLarge(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example")
	_, _, err := ParseRequestHead(raw, len(raw))
	var tooLarge *errs.HeadTooLarge
	require.True(t, errors.As(err, &tooLarge))
}

func TestParseRequestHeadRejectsLineFolding(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n continued\r\n\r\n")
	_, _, err := ParseRequestHead(raw, 8192)
	var malformed *errs.Malformed
	require.True(t, errors.As(err, &malformed))
}

func TestParseRequestHeadRejectsMissingColon(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHostexample.com\r\n\r\n")
	_, _, err := ParseRequestHead(raw, 8192)
	var malformed *errs.Malformed
	require.True(t, errors.As(err, &malformed))
}

func TestParseRequestHeadCustomMethod(t *testing.T) {
	raw := []byte("PURGE /cache HTTP/1.1\r\n\r\n")
	head, _, err := ParseRequestHead(raw, 8192)
	require.NoError(t, err)
	assert.True(t, head.Method.IsCustom())
	assert.Equal(t, "PURGE", head.Method.String())
}

func TestParseRequestHeadHTTP10(t *testing.T) {
	raw := []byte("GET / HTTP/1.0\r\n\r\n")
	head, _, err := ParseRequestHead(raw, 8192)
	require.NoError(t, err)
	assert.Equal(t, 0, head.Version)
}
