// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Hook contracts, spec.md §6, supplemented with the Stop outcome from
// original_source/src/server/mod.rs's StreamSetupAction (SPEC_FULL.md §C.1).

package server

// ConnectionSetupResult is returned by a ConnectionSetupHook.
type ConnectionSetupResult int

const (
	// Proceed continues serving the connection normally.
	Proceed ConnectionSetupResult = iota
	// Drop closes the connection immediately without a response.
	Drop
	// Stop, in addition to dropping this connection, tells the listener
	// loop to stop accepting new connections — a supplemented outcome
	// (SPEC_FULL.md §C.1) used for graceful shutdown drills.
	Stop
)

// ConnectionSetupHook runs once per accepted connection, before the
// serving loop starts (§4.5 step 2). It may adjust socket options via
// conn.RawConn() before returning.
type ConnectionSetupHook func(conn *Connection) ConnectionSetupResult

// PreRoutingHook runs after head parsing and before route resolution
// (§4.5 step b). Returning Drop closes the connection after any response
// the hook has already written via res.
type PreRoutingHook func(ctx *RequestContext, res *ResponseHandle, conn *Connection) ConnectionSetupResult

// TeardownHook runs once per connection after its serving loop ends
// (§4.5 step 4). lastErr is the error (if any) that ended the loop; it is
// nil for a clean keep-alive-exhausted close.
type TeardownHook func(conn *Connection, lastErr error)
