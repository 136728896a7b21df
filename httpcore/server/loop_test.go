// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package server

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flinthttp/flint/httpcore/wire"
)

// dialTestConnection wires up a net.Pipe and starts serveConnection on
// the server side in its own goroutine, returning the client side
// (wrapped in a bufio.Reader for response reading) and a channel that
// receives serveConnection's "stop accepting" result once the
// connection ends.
func dialTestConnection(t *testing.T, srv *Server) (net.Conn, *bufio.Reader, <-chan bool) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	done := make(chan bool, 1)
	go func() { done <- srv.serveConnection(serverSide) }()
	clientSide.SetDeadline(time.Now().Add(5 * time.Second))
	return clientSide, bufio.NewReader(clientSide), done
}

func echoUpper(ctx *RequestContext, res *ResponseHandle) error {
	raw, err := io.ReadAll(ctx.Body())
	if err != nil {
		return err
	}
	for i, c := range raw {
		if c >= 'a' && c <= 'z' {
			raw[i] = c - 'a' + 'A'
		}
	}
	return res.SendSized(wire.OK, wire.Empty(), strings.NewReader(string(raw)), int64(len(raw)))
}

func TestScenarioBasicGet(t *testing.T) {
	srv := NewBuilder().
		Route("GET", "/hello", func(_ *RequestContext, res *ResponseHandle) error {
			return res.Ok(wire.Empty(), strings.NewReader("world"))
		}).
		Build()
	defer srv.Close()

	client, r, done := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 200 OK", resp.statusLine)
	assert.Equal(t, "world", resp.body)
	assert.False(t, <-done) // connection-level stop, not listener-level
}

func TestScenarioPostUppercaseEcho(t *testing.T) {
	srv := NewBuilder().Route("POST", "/echo", echoUpper).Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	req := "POST /echo HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\nConnection: close\r\n\r\nhello"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 200 OK", resp.statusLine)
	assert.Equal(t, "HELLO", resp.body)
}

func TestScenarioParamCapture(t *testing.T) {
	srv := NewBuilder().
		Route("GET", "/users/:id", func(ctx *RequestContext, res *ResponseHandle) error {
			id, _ := ctx.Params.Get("id")
			return res.Ok(wire.Empty(), strings.NewReader(string(id)))
		}).
		Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /users/42 HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "42", resp.body)
}

func TestScenarioCatchAllCapture(t *testing.T) {
	srv := NewBuilder().
		Route("GET", "/files/**", func(ctx *RequestContext, res *ResponseHandle) error {
			rest, _ := ctx.Params.Get("*")
			return res.Ok(wire.Empty(), strings.NewReader(string(rest)))
		}).
		Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /files/a/b/c.txt HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "a/b/c.txt", resp.body)
}

func TestScenarioFallbackIs404(t *testing.T) {
	srv := NewBuilder().Route("GET", "/known", func(_ *RequestContext, res *ResponseHandle) error {
		return res.Send0(wire.OK, wire.Empty())
	}).Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /unknown HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 404 Not Found", resp.statusLine)
}

func TestScenarioCustomFallbackRoute(t *testing.T) {
	srv := NewBuilder().
		FallbackRoute(func(_ *RequestContext, res *ResponseHandle) error {
			return res.Send0(wire.Of(wire.StatusMethodNotAllowed), wire.Close())
		}).
		Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("PURGE /cache HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 405 Method Not Allowed", resp.statusLine)
	assert.Equal(t, "close", resp.headers["connection"])
}

func TestScenarioPreRoutingHookDrop(t *testing.T) {
	srv := NewBuilder().
		PreRoutingHook(func(_ *RequestContext, res *ResponseHandle, _ *Connection) ConnectionSetupResult {
			res.Send0(wire.Of(wire.StatusTooManyRequests), wire.Empty())
			return Drop
		}).
		Route("GET", "/x", func(_ *RequestContext, res *ResponseHandle) error {
			return res.Send0(wire.OK, wire.Empty())
		}).
		Build()
	defer srv.Close()

	client, r, done := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /x HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 429 Too Many Requests", resp.statusLine)
	assert.False(t, <-done)
}

func TestScenarioHTTP10ImplicitClose(t *testing.T) {
	srv := NewBuilder().Route("GET", "/x", func(_ *RequestContext, res *ResponseHandle) error {
		return res.Send0(wire.OK, wire.Empty())
	}).Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /x HTTP/1.0\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "close", resp.headers["connection"])
}

func TestScenarioChunkedRequestToFixedResponse(t *testing.T) {
	srv := NewBuilder().Route("POST", "/echo", echoUpper).Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	req := "POST /echo HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\nConnection: close\r\n\r\n" +
		"3\r\nabc\r\n2\r\nde\r\n0\r\n\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "ABCDE", resp.body)
}

func TestScenarioKeepAliveReusesConnection(t *testing.T) {
	srv := NewBuilder().
		Route("GET", "/x", func(ctx *RequestContext, res *ResponseHandle) error {
			return res.Ok(wire.Empty(), strings.NewReader(string(rune('0'+ctx.conn.Index()))))
		}).
		Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	for i := 0; i < 3; i++ {
		_, err := client.Write([]byte("GET /x HTTP/1.1\r\nHost: x\r\n\r\n"))
		require.NoError(t, err)
		resp := readOneResponse(t, r)
		assert.Equal(t, "HTTP/1.1 200 OK", resp.statusLine)
		assert.Equal(t, string(rune('0'+i)), resp.body)
	}
}

func TestScenarioHeadTooLarge(t *testing.T) {
	srv := NewBuilder().MaxRequestHeadSize(64).Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("GET /" + strings.Repeat("x", 200) + " HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 413 Content Too Large", resp.statusLine)
}

func TestScenarioMalformedHeadGetsBadRequest(t *testing.T) {
	srv := NewBuilder().Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("NOT A REQUEST\r\n\r\n"))
	require.NoError(t, err)

	resp := readOneResponse(t, r)
	assert.Equal(t, "HTTP/1.1 400 Bad Request", resp.statusLine)
}

func TestScenarioHeadMethodSuppressesBody(t *testing.T) {
	srv := NewBuilder().
		Route("HEAD", "/x", func(_ *RequestContext, res *ResponseHandle) error {
			return res.Ok(wire.Empty(), strings.NewReader("hello"))
		}).
		Build()
	defer srv.Close()

	client, r, _ := dialTestConnection(t, srv)
	defer client.Close()

	_, err := client.Write([]byte("HEAD /x HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponseHead(t, r)
	assert.Equal(t, "5", resp.headers["content-length"])
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, rest)
}
