// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package server

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testResponse is a minimally-parsed HTTP/1.1 response used only to keep
// the end-to-end tests in this package readable; it intentionally
// doesn't reuse httpcore/parser so a parser bug can't mask a writer bug
// (and vice versa) in the same assertion.
type testResponse struct {
	statusLine string
	headers    map[string]string
	body       string
}

func readOneResponse(t *testing.T, r *bufio.Reader) testResponse {
	t.Helper()
	resp := readResponseHead(t, r)
	headers := resp.headers

	var body string
	switch {
	case headers["transfer-encoding"] == "chunked":
		body = readChunkedBody(t, r)
	case headers["content-length"] != "":
		n, err := strconv.Atoi(headers["content-length"])
		require.NoError(t, err)
		buf := make([]byte, n)
		if n > 0 {
			_, err = io.ReadFull(r, buf)
			require.NoError(t, err)
		}
		body = string(buf)
	}
	resp.body = body
	return resp
}

// readResponseHead reads only the status line and header section. It is
// for responses whose framing headers describe a body that is not sent
// (a HEAD response), which readOneResponse would wait for.
func readResponseHead(t *testing.T, r *bufio.Reader) testResponse {
	t.Helper()
	statusLine, err := r.ReadString('\n')
	require.NoError(t, err)
	statusLine = strings.TrimRight(statusLine, "\r\n")

	headers := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		require.Greater(t, colon, 0)
		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		headers[name] = strings.TrimSpace(line[colon+1:])
	}
	return testResponse{statusLine: statusLine, headers: headers}
}

func readChunkedBody(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var out strings.Builder
	for {
		sizeLine, err := r.ReadString('\n')
		require.NoError(t, err)
		sizeLine = strings.TrimRight(sizeLine, "\r\n")
		n, err := strconv.ParseInt(sizeLine, 16, 64)
		require.NoError(t, err)
		if n == 0 {
			_, err = r.ReadString('\n') // trailing blank line
			require.NoError(t, err)
			return out.String()
		}
		buf := make([]byte, n)
		_, err = io.ReadFull(r, buf)
		require.NoError(t, err)
		out.Write(buf)
		_, err = r.ReadString('\n') // chunk-terminating CRLF
		require.NoError(t, err)
	}
}
