// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Server: the immutable, built configuration shared read-only across the
// scheduler's workers (§5 "the router trie is built at startup, frozen,
// and shared read-only"). Grounded on gorox's httpxServer, trimmed to the
// single HTTP/1.1-over-TCP surface this spec covers.

package server

import (
	"net"

	"github.com/hashicorp/go-hclog"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/respond"
	"github.com/flinthttp/flint/httpcore/router"
)

// Server is the frozen result of Builder.Build(). It is safe for
// concurrent use by many connection-serving goroutines.
type Server struct {
	threadCount        int
	maxRequestHeadSize int
	maxBodySize        int64
	readBufferSize     int

	trie          *router.Trie[Handler]
	setupHook     ConnectionSetupHook
	preRouting    PreRoutingHook
	teardown      TeardownHook
	trailerPolicy body.TrailerPolicy

	logger          hclog.Logger
	dates           *respond.DateCache
	defaultFallback Handler
}

// Close stops the date cache's background refresh goroutine. Call once
// the server is done serving.
func (s *Server) Close() { s.dates.Stop() }

// Listen is a convenience wrapping net.Listen("tcp", addr) with
// SO_REUSEADDR, per §6 "The socket is created with SO_REUSEADDR". Go's
// net package sets SO_REUSEADDR on TCP listeners by default on the
// platforms this repo targets, so no additional syscall is required —
// documented here rather than silently relied upon.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
