// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

//go:build !linux

package server

import (
	"errors"
	"net"
)

// ErrEpollUnsupported is returned by ServeEpoll on non-Linux platforms
// (§4.6 "Readiness-driven (Linux-only, opt-in)").
var ErrEpollUnsupported = errors.New("httpcore: the epoll scheduler is Linux-only")

// ServeEpoll always fails on this platform; use Serve instead.
func (s *Server) ServeEpoll(ln net.Listener) error {
	return ErrEpollUnsupported
}
