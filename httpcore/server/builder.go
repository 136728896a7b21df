// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Builder: programmatic configuration plus Build(), grounded on
// original_source/src/server/builder.rs and gorox's Component_/OnConfigure
// convention of validating once at startup and panicking on programmer
// error rather than returning a configuration error at request time
// (SPEC_FULL.md §A.2).

package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/flinthttp/flint/httpcore/body"
	"github.com/flinthttp/flint/httpcore/respond"
	"github.com/flinthttp/flint/httpcore/router"
	"github.com/flinthttp/flint/httpcore/wire"
)

const (
	defaultThreadCount       = 20
	defaultMaxRequestHeadSize = 8 * 1024
	defaultMaxBodySize       = 1024 * 1024 // §4.5 step e "1 MiB default"
	defaultReadBufferSize    = 16 * 1024
)

// Builder assembles a Server. Every option listed in spec.md §6's table
// has a method here; Route panics if routes conflict, and Build panics on
// non-positive sizes or a second call (§7 "fatal at build time").
type Builder struct {
	threadCount       int
	maxRequestHeadSize int
	maxBodySize       int64
	readBufferSize    int

	trie        *router.Trie[Handler]
	setupHook   ConnectionSetupHook
	preRouting  PreRoutingHook
	teardown    TeardownHook
	trailerPolicy body.TrailerPolicy

	logger hclog.Logger

	built bool
}

// NewBuilder returns a Builder pre-filled with spec.md §6's defaults.
func NewBuilder() *Builder {
	return &Builder{
		threadCount:        defaultThreadCount,
		maxRequestHeadSize: defaultMaxRequestHeadSize,
		maxBodySize:        defaultMaxBodySize,
		readBufferSize:     defaultReadBufferSize,
		trie:               router.New[Handler](),
	}
}

// ThreadCount sets the worker count for the threaded scheduler.
func (b *Builder) ThreadCount(n int) *Builder { b.threadCount = n; return b }

// MaxRequestHeadSize sets the request-head byte ceiling.
func (b *Builder) MaxRequestHeadSize(n int) *Builder { b.maxRequestHeadSize = n; return b }

// MaxBodySize sets the budget of the post-handler drain step (§4.5 step
// e): a request body left longer than this makes the connection close.
// body.ReadAll takes its own limit and does not read this value.
func (b *Builder) MaxBodySize(n int64) *Builder { b.maxBodySize = n; return b }

// ReadBufferSize sets the per-connection read buffer size.
func (b *Builder) ReadBufferSize(n int) *Builder { b.readBufferSize = n; return b }

// Route registers a handler for method+pattern (§4.4, §6). A conflicting
// registration panics here, immediately (router.Trie.AddRoute panics), so
// conflicts surface during setup, before Build is reached.
func (b *Builder) Route(method, pattern string, h Handler) *Builder {
	b.trie.AddRoute(method, pattern, h)
	return b
}

// FallbackRoute registers the handler used when no route matches (§6).
func (b *Builder) FallbackRoute(h Handler) *Builder {
	b.trie.SetFallback(h)
	return b
}

// ConnectionSetupHook installs the hook run once per accepted connection.
func (b *Builder) ConnectionSetupHook(h ConnectionSetupHook) *Builder { b.setupHook = h; return b }

// PreRoutingHook installs the hook run after head parsing, before routing.
func (b *Builder) PreRoutingHook(h PreRoutingHook) *Builder { b.preRouting = h; return b }

// TeardownHook installs the hook run once a connection's loop ends.
func (b *Builder) TeardownHook(h TeardownHook) *Builder { b.teardown = h; return b }

// TrailerPolicy installs a callback observing request trailers once a
// chunked body finishes (SPEC_FULL.md §C.4).
func (b *Builder) TrailerPolicy(p body.TrailerPolicy) *Builder { b.trailerPolicy = p; return b }

// Logger installs a structured logger (SPEC_FULL.md §A.1), defaulting to
// a quiet Info-level logger if never called.
func (b *Builder) Logger(l hclog.Logger) *Builder { b.logger = l; return b }

// Build validates the configuration and returns an immutable Server.
// Router conflicts panic inside Route already; Build's own
// checks cover cross-cutting misconfiguration.
func (b *Builder) Build() *Server {
	if b.built {
		panic("httpcore: Builder.Build called twice")
	}
	b.built = true
	if b.threadCount <= 0 {
		panic("httpcore: ThreadCount must be positive")
	}
	if b.maxRequestHeadSize <= 0 {
		panic("httpcore: MaxRequestHeadSize must be positive")
	}
	if b.readBufferSize <= 0 {
		panic("httpcore: ReadBufferSize must be positive")
	}
	if b.logger == nil {
		b.logger = hclog.New(&hclog.LoggerOptions{Name: "httpcore", Level: hclog.Info})
	}
	return &Server{
		threadCount:        b.threadCount,
		maxRequestHeadSize: b.maxRequestHeadSize,
		maxBodySize:        b.maxBodySize,
		readBufferSize:     b.readBufferSize,
		trie:               b.trie,
		setupHook:          b.setupHook,
		preRouting:         b.preRouting,
		teardown:           b.teardown,
		trailerPolicy:      b.trailerPolicy,
		logger:             b.logger,
		dates:              respond.NewDateCache(),
		defaultFallback:    defaultFallbackHandler,
	}
}

func defaultFallbackHandler(_ *RequestContext, res *ResponseHandle) error {
	return res.Send0(wire.NotFound, wire.Empty())
}
