// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Routing trie, spec.md §4.4. Neither the teacher nor the original
// implementation (original_source/src/router.rs's DefaultRouter, a flat
// HashMap<RouteEntry, Arc<T>> scored by longest-literal-match) builds a
// true segment trie; this one does, generalizing the original's
// generic-over-route-type shape (DefaultRouter<T>) into a Go type
// parameter instead of duplicate/conflict detection happening at match
// time rather than registration time.

package router

import "bytes"

// Params is the insertion-ordered capture set produced by a match. Values
// borrow the matched path; callers must not retain them past the request.
type Params struct {
	names  []string
	values [][]byte
}

// Get returns the captured value for name, or false if no such capture
// exists.
func (p *Params) Get(name string) ([]byte, bool) {
	for i, n := range p.names {
		if n == name {
			return p.values[i], true
		}
	}
	return nil, false
}

// Each calls fn for every capture in declaration order.
func (p *Params) Each(fn func(name string, value []byte)) {
	for i, n := range p.names {
		fn(n, p.values[i])
	}
}

func (p *Params) push(name string, value []byte) {
	p.names = append(p.names, name)
	p.values = append(p.values, value)
}

func (p *Params) mark() int { return len(p.names) }

func (p *Params) reset(mark int) {
	p.names = p.names[:mark]
	p.values = p.values[:mark]
}

type node[H any] struct {
	static    map[string]*node[H]
	paramName string
	param     *node[H]
	wild      *node[H]
	catchAll  *node[H]
	handlers  map[string]H
}

func newNode[H any]() *node[H] {
	return &node[H]{handlers: make(map[string]H)}
}

// Trie is a path-segment router parameterized over the handler type, the
// idiomatic-Go replacement for the original's DefaultRouter<T>.
type Trie[H any] struct {
	root        *node[H]
	fallback    H
	hasFallback bool
}

// New builds an empty trie.
func New[H any]() *Trie[H] {
	return &Trie[H]{root: newNode[H]()}
}

// SetFallback installs the handler returned when no registered route
// matches (Builder's fallback_route option, §6).
func (t *Trie[H]) SetFallback(h H) {
	t.fallback = h
	t.hasFallback = true
}

// Fallback returns the configured fallback handler, if any.
func (t *Trie[H]) Fallback() (H, bool) {
	return t.fallback, t.hasFallback
}

// AddRoute registers h for method+pattern. Patterns are split on "/";
// segments starting with ":" capture a named parameter, "*" matches one
// unnamed segment, and "**" (only as the final segment) matches the
// remainder. AddRoute panics on any conflict — a programmer error caught
// at build time, never at request time (spec.md §7 "Configuration
// errors: fatal at build time").
func (t *Trie[H]) AddRoute(method, pattern string, h H) {
	segs := splitPattern(pattern)
	n := t.root
	seenParams := make(map[string]bool)
	for i, seg := range segs {
		switch {
		case seg == "**":
			if i != len(segs)-1 {
				panic("router: \"**\" must be the final segment in pattern " + pattern)
			}
			if n.catchAll == nil {
				n.catchAll = newNode[H]()
			}
			n = n.catchAll
		case seg == "*":
			if n.wild == nil {
				n.wild = newNode[H]()
			}
			n = n.wild
		case len(seg) > 0 && seg[0] == ':':
			name := seg[1:]
			if name == "" {
				panic("router: empty parameter name in pattern " + pattern)
			}
			if seenParams[name] {
				panic("router: duplicate parameter name " + name + " in pattern " + pattern)
			}
			seenParams[name] = true
			if n.param != nil && n.paramName != name {
				panic("router: conflicting parameter name at existing position (\"" + n.paramName + "\" vs \"" + name + "\") registering " + pattern)
			}
			if n.param == nil {
				n.param = newNode[H]()
				n.paramName = name
			}
			n = n.param
		default:
			if n.static == nil {
				n.static = make(map[string]*node[H])
			}
			child, ok := n.static[seg]
			if !ok {
				child = newNode[H]()
				n.static[seg] = child
			}
			n = child
		}
	}
	if _, exists := n.handlers[method]; exists {
		panic("router: duplicate route for " + method + " " + pattern)
	}
	n.handlers[method] = h
}

// Match resolves method+path against the trie, walking segments left to
// right and trying static, param, wild, and catchall children in that
// order at each node, backtracking when a branch dead-ends (§4.4). The
// first completed walk wins, giving the precedence static > :param > *
// > **.
func (t *Trie[H]) Match(method string, path []byte) (H, *Params, bool) {
	segs := splitPath(path)
	var params Params
	h, ok := matchNode(t.root, segs, 0, method, &params)
	return h, &params, ok
}

func matchNode[H any](n *node[H], segs [][]byte, idx int, method string, params *Params) (H, bool) {
	if idx == len(segs) {
		if h, ok := n.handlers[method]; ok {
			return h, true
		}
	} else {
		seg := segs[idx]
		if n.static != nil {
			if child, ok := n.static[string(seg)]; ok {
				if h, ok := matchNode(child, segs, idx+1, method, params); ok {
					return h, true
				}
			}
		}
		if n.param != nil {
			mark := params.mark()
			params.push(n.paramName, seg)
			if h, ok := matchNode(n.param, segs, idx+1, method, params); ok {
				return h, true
			}
			params.reset(mark)
		}
		if n.wild != nil {
			if h, ok := matchNode(n.wild, segs, idx+1, method, params); ok {
				return h, true
			}
		}
	}
	if n.catchAll != nil {
		mark := params.mark()
		params.push("*", joinRemainder(segs, idx))
		if h, ok := n.catchAll.handlers[method]; ok {
			return h, true
		}
		params.reset(mark)
	}
	var zero H
	return zero, false
}

// splitPattern splits a registration pattern on "/", ignoring a leading
// and trailing slash, so "/user/:id" and "user/:id" register identically.
func splitPattern(pattern string) []string {
	trimmed := trimSlashesString(pattern)
	if trimmed == "" {
		return nil
	}
	parts := make([]string, 0, 4)
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i == len(trimmed) || trimmed[i] == '/' {
			parts = append(parts, trimmed[start:i])
			start = i + 1
		}
	}
	return parts
}

// splitPath splits a request path the same way, borrowing into path
// without allocating new backing arrays.
func splitPath(path []byte) [][]byte {
	trimmed := trimSlashesBytes(path)
	if len(trimmed) == 0 {
		return nil
	}
	return bytes.Split(trimmed, []byte("/"))
}

// joinRemainder reconstructs the "/"-joined remainder of segs from idx
// onward, the catch-all capture under the synthetic name "*".
func joinRemainder(segs [][]byte, idx int) []byte {
	if idx >= len(segs) {
		return nil
	}
	return bytes.Join(segs[idx:], []byte("/"))
}

func trimSlashesString(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func trimSlashesBytes(b []byte) []byte {
	for len(b) > 0 && b[0] == '/' {
		b = b[1:]
	}
	for len(b) > 0 && b[len(b)-1] == '/' {
		b = b[:len(b)-1]
	}
	return b
}
