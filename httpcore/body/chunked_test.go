// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package body

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flinthttp/flint/httpcore/wire"
)

func TestChunkedReaderDecodesMultipleChunks(t *testing.T) {
	raw := "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	r := newChunkedReader(strings.NewReader(raw))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(got))
}

func TestChunkedReaderInvokesTrailerPolicy(t *testing.T) {
	raw := "3\r\nfoo\r\n0\r\nX-Checksum: abc123\r\n\r\n"
	var seen wire.Headers
	r := newChunkedReader(strings.NewReader(raw)).WithTrailerPolicy(func(h wire.Headers) { seen = h })
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "foo", string(got))
	v, ok := seen.GetString("x-checksum")
	require.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestChunkedReaderRejectsOversizedChunkSize(t *testing.T) {
	raw := "FFFFFFFFFFFFFFFFF\r\n"
	r := newChunkedReader(strings.NewReader(raw))
	_, err := io.ReadAll(r)
	assert.Error(t, err)
}

func TestChunkedReaderUnexpectedEOFMidChunk(t *testing.T) {
	raw := "10\r\nshort"
	r := newChunkedReader(strings.NewReader(raw))
	_, err := io.ReadAll(r)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWithTrailerPolicyIfChunkedNoopOnOtherReaders(t *testing.T) {
	plain := strings.NewReader("x")
	WithTrailerPolicyIfChunked(plain, func(wire.Headers) { t.Fatal("must not be called") })
}
