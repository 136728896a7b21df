// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersAddTracksFraming(t *testing.T) {
	var h Headers
	h.AddString("Content-Length", "42")
	h.AddString("Transfer-Encoding", "chunked")
	h.AddString("Connection", "keep-alive, close")

	cl, ok := h.ContentLength()
	require.True(t, ok)
	assert.EqualValues(t, 42, cl)
	assert.True(t, h.IsChunked())
	assert.True(t, h.IsConnectionClose())
}

func TestHeadersGetIsLastWriteWins(t *testing.T) {
	var h Headers
	h.AddString("X-Thing", "first")
	h.AddString("X-Thing", "second")

	v, ok := h.GetString("x-thing")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Len(t, h.All(HeaderNameString("x-thing")), 2)
}

func TestHeadersRemoveClearsFramingState(t *testing.T) {
	var h Headers
	h.AddString("Content-Length", "10")
	h.Remove(HeaderContentLength)

	_, ok := h.ContentLength()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
}

func TestCloseHeadersCarriesConnectionClose(t *testing.T) {
	h := Close()
	assert.True(t, h.IsConnectionClose())
	assert.Equal(t, 1, h.Len())
}

func TestHeaderNameEqualFoldsCase(t *testing.T) {
	a := HeaderNameString("Content-Type")
	b := HeaderNameString("content-type")
	assert.True(t, a.Equal(b))
	assert.True(t, a.EqualString("content-type"))
}
