// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Thread-per-connection scheduler, spec.md §4.6's default driver.
// Grounded on gorox's accept loop (hemi/web_httpx_server.go's Gate.serve:
// "for { netConn, err := gate.listener.Accept(); ... go serverConn.serve() }")
// with the worker count bounded through golang.org/x/sync/semaphore
// instead of gorox's unbounded goroutine-per-connection, since spec.md §4.6
// names a fixed-size pool rather than an unbounded fan-out (SPEC_FULL.md §B).

package server

import (
	"context"
	"net"

	"golang.org/x/sync/semaphore"
)

// Serve accepts connections on ln, dispatching each to its own goroutine,
// admission-bounded to threadCount concurrent connections (§4.6
// "thread-per-connection... a bounded pool of N worker threads"; overflow
// connections block at accept() via the semaphore, mirroring the spec's
// "the OS backlog absorbs bursts"). Serve blocks until ln.Accept fails
// (typically because ln was closed) or a connection-setup hook returns
// Stop.
func (s *Server) Serve(ln net.Listener) error {
	sem := semaphore.NewWeighted(int64(s.threadCount))
	ctx := context.Background()

	for {
		netConn, err := ln.Accept()
		if err != nil {
			return err
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			netConn.Close()
			return err
		}
		go func() {
			defer sem.Release(1)
			if s.serveConnection(netConn) {
				ln.Close()
			}
		}()
	}
}
