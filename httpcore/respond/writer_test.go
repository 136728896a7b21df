// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package respond

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/wire"
)

func newTestWriter(buf *bytes.Buffer, version int, reqClose, isHead bool) *Writer {
	dc := NewDateCache()
	return NewWriter(buf, dc, nil, version, reqClose, isHead)
}

func splitHeadAndBody(t *testing.T, raw string) (string, string) {
	t.Helper()
	idx := strings.Index(raw, "\r\n\r\n")
	require.GreaterOrEqual(t, idx, 0)
	return raw[:idx], raw[idx+4:]
}

func TestWriterSendBufferedUsesContentLength(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	err := w.Ok(wire.Empty(), strings.NewReader("hello"))
	require.NoError(t, err)

	head, body := splitHeadAndBody(t, buf.String())
	assert.Contains(t, head, "HTTP/1.1 200 OK")
	assert.Contains(t, head, "Content-Length: 5")
	assert.NotContains(t, head, "Transfer-Encoding")
	assert.Equal(t, "hello", body)
}

func TestWriterSendChunkedWhenBodyExceedsProbe(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	large := strings.Repeat("x", probeMax+10)
	err := w.Ok(wire.Empty(), strings.NewReader(large))
	require.NoError(t, err)

	head, bodyStr := splitHeadAndBody(t, buf.String())
	assert.Contains(t, head, "Transfer-Encoding: chunked")
	assert.NotContains(t, head, "Content-Length")

	var reqHeaders wire.Headers
	reqHeaders.AddString("Transfer-Encoding", "chunked")
	decoded, err := body.NewRequestReader(reqHeaders, strings.NewReader(bodyStr))
	require.NoError(t, err)
	got, err := io.ReadAll(decoded)
	require.NoError(t, err)
	assert.Equal(t, large, string(got))
}

func TestWriterSend0HasZeroContentLength(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	require.NoError(t, w.Send0(wire.NotFound, wire.Empty()))
	head, body := splitHeadAndBody(t, buf.String())
	assert.Contains(t, head, "404 Not Found")
	assert.Contains(t, head, "Content-Length: 0")
	assert.Empty(t, body)
}

func TestWriterSuppressesBodyOn204(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	require.NoError(t, w.Send(wire.Of(wire.StatusNoContent), wire.Empty(), strings.NewReader("dropped")))
	head, body := splitHeadAndBody(t, buf.String())
	assert.NotContains(t, head, "Content-Length")
	assert.NotContains(t, head, "Transfer-Encoding")
	assert.Empty(t, body)
}

func TestWriterHeadSuppressesBodyBytesButKeepsFraming(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, true)

	require.NoError(t, w.Ok(wire.Empty(), strings.NewReader("hello")))
	head, body := splitHeadAndBody(t, buf.String())
	assert.Contains(t, head, "Content-Length: 5")
	assert.Empty(t, body)
}

func TestWriterClosesOnHTTP10(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 0, false, false)

	require.NoError(t, w.Send0(wire.OK, wire.Empty()))
	assert.True(t, w.ShouldClose())
	assert.Contains(t, buf.String(), "Connection: close")
}

func TestWriterClosesOnRequestConnectionClose(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, true, false)

	require.NoError(t, w.Send0(wire.OK, wire.Empty()))
	assert.True(t, w.ShouldClose())
}

func TestWriterDoesNotDuplicateUserSuppliedDate(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	var h wire.Headers
	h.AddString("Date", "Sat, 01 Jan 2000 00:00:00 GMT")
	require.NoError(t, w.Send0(wire.OK, h))

	head, _ := splitHeadAndBody(t, buf.String())
	assert.Equal(t, 1, strings.Count(head, "Date:"))
	assert.Contains(t, head, "Date: Sat, 01 Jan 2000 00:00:00 GMT")
}

func TestWriterSecondSendFails(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	require.NoError(t, w.Send0(wire.OK, wire.Empty()))
	err := w.Send0(wire.OK, wire.Empty())
	assert.Error(t, err)
}

func TestWriterStripsUserSuppliedFramingHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(&buf, 1, false, false)

	var h wire.Headers
	h.AddString("Content-Length", "999")
	h.AddString("Transfer-Encoding", "chunked")
	require.NoError(t, w.Send0(wire.OK, h))

	head, _ := splitHeadAndBody(t, buf.String())
	assert.Equal(t, 1, strings.Count(head, "Content-Length:"))
	assert.Contains(t, head, "Content-Length: 0")
	assert.NotContains(t, head, "Transfer-Encoding")
}
