// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

//go:build linux

// Readiness-driven (epoll) scheduler, spec.md §4.6's Linux-only opt-in
// driver. Grounded on original_source/src/server/epoll.rs: a single
// epoll set holding the listener plus every open connection, with a
// per-connection in-flight guard so a fd is never dispatched to two
// workers at once, and edge-triggered re-arming once a worker's cycle
// finishes. golang.org/x/sys/unix supplies the raw epoll_create1/
// epoll_ctl/epoll_wait bindings (SPEC_FULL.md §B), the same role
// `libc`'s epoll bindings play in the original.

package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"
)

// ErrEpollUnsupported would be returned on a non-Linux platform; defined
// here too so callers can reference it uniformly regardless of GOOS.
var ErrEpollUnsupported = errors.New("httpcore: the epoll scheduler is Linux-only")

type epollEntry struct {
	conn    *Connection
	netConn net.Conn
	fd      int32

	mu       sync.Mutex
	inFlight bool
	closed   bool
}

func (e *epollEntry) tryTakeInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight || e.closed {
		return false
	}
	e.inFlight = true
	return true
}

type epollRegistry struct {
	mu      sync.Mutex
	entries map[int32]*epollEntry
}

func newEpollRegistry() *epollRegistry {
	return &epollRegistry{entries: make(map[int32]*epollEntry)}
}

func (r *epollRegistry) put(e *epollEntry) {
	r.mu.Lock()
	r.entries[e.fd] = e
	r.mu.Unlock()
}

func (r *epollRegistry) get(fd int32) *epollEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[fd]
}

func (r *epollRegistry) remove(fd int32) {
	r.mu.Lock()
	delete(r.entries, fd)
	r.mu.Unlock()
}

// ServeEpoll runs the readiness-driven scheduler on ln: one epoll set
// holds the listener and every open connection; a bounded worker pool
// (golang.org/x/sync/semaphore, same bound as Serve's thread count)
// drains readable connections. It returns when a connection_setup_hook
// returns Stop or epoll_wait fails; closing ln does not by itself make it
// return.
func (s *Server) ServeEpoll(ln net.Listener) error {
	lnSC, ok := ln.(syscall.Conn)
	if !ok {
		return errors.New("httpcore: ServeEpoll requires a listener exposing SyscallConn")
	}
	lnFD, err := rawFD(lnSC)
	if err != nil {
		return err
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	defer unix.Close(epfd)

	// Level-triggered: as long as the accept queue is non-empty, every
	// epoll_wait call re-reports the listener readable, so acceptOne
	// below never needs to drain in a loop itself (ln.Accept() would
	// otherwise block on an empty queue, stalling this goroutine).
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, lnFD, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(lnFD)}); err != nil {
		return err
	}

	reg := newEpollRegistry()
	sem := semaphore.NewWeighted(int64(s.threadCount))
	sctx := context.Background()
	events := make([]unix.EpollEvent, 128)

	for {
		n, werr := unix.EpollWait(epfd, events, -1)
		if werr != nil {
			if werr == unix.EINTR {
				continue
			}
			return werr
		}
		for i := 0; i < n; i++ {
			fd := events[i].Fd
			if fd == int32(lnFD) {
				if stop := s.acceptOne(ln, epfd, reg); stop {
					return nil
				}
				continue
			}
			entry := reg.get(fd)
			if entry == nil || !entry.tryTakeInFlight() {
				continue
			}
			if aerr := sem.Acquire(sctx, 1); aerr != nil {
				return aerr
			}
			go s.runEpollCycle(epfd, reg, entry, sem)
		}
	}
}

// acceptOne accepts exactly one connection, registers it edge-triggered,
// and returns whether the setup hook asked to stop accepting entirely
// (SPEC_FULL.md §C.1).
func (s *Server) acceptOne(ln net.Listener, epfd int, reg *epollRegistry) (stop bool) {
	nc, err := ln.Accept()
	if err != nil {
		return false
	}
	conn := getConnection()
	conn.onGet(nc, s.logger, s.readBufferSize)

	switch s.runSetupHook(conn) {
	case Drop:
		putConnection(conn)
		nc.Close()
		return false
	case Stop:
		putConnection(conn)
		nc.Close()
		return true
	}

	ncSC, ok := nc.(syscall.Conn)
	if !ok {
		putConnection(conn)
		nc.Close()
		return false
	}
	fd, ferr := rawFD(ncSC)
	if ferr != nil {
		putConnection(conn)
		nc.Close()
		return false
	}

	entry := &epollEntry{conn: conn, netConn: nc, fd: int32(fd)}
	reg.put(entry)
	unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(fd)})
	return false
}

// runEpollCycle processes exactly one request/response cycle for entry,
// then either re-arms it for the next edge or tears it down. The
// handler itself always runs to completion on this worker (§4.6: "the
// driver does not attempt to suspend user code").
func (s *Server) runEpollCycle(epfd int, reg *epollRegistry, entry *epollEntry, sem *semaphore.Weighted) {
	defer sem.Release(1)

	keepAlive, hookStop, lastErr := s.serveOneRequest(entry.conn)
	if keepAlive && !hookStop {
		entry.conn.index++
		entry.mu.Lock()
		entry.inFlight = false
		entry.mu.Unlock()
		unix.EpollCtl(epfd, unix.EPOLL_CTL_MOD, int(entry.fd), &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: entry.fd})
		return
	}

	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()
	reg.remove(entry.fd)
	unix.EpollCtl(epfd, unix.EPOLL_CTL_DEL, int(entry.fd), nil)
	if s.teardown != nil {
		s.teardown(entry.conn, lastErr)
	}
	entry.netConn.Close()
	putConnection(entry.conn)
}

func rawFD(c syscall.Conn) (int, error) {
	sc, err := c.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	cerr := sc.Control(func(f uintptr) { fd = int(f) })
	if cerr != nil {
		return -1, cerr
	}
	return fd, nil
}
