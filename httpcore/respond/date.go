// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Process-wide Date header cache. Grounded on gorox's clockFixture
// (hemi/fixtures.go): a single background goroutine refreshes a cached
// formatted value at most once per second, and every connection's
// response writer snapshots it atomically instead of formatting
// time.Now() on every response (spec.md §4.3 rule 1, §9 "Date cache").

package respond

import (
	"sync/atomic"
	"time"
)

const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// DateCache holds the most recently formatted IMF-fixdate value.
type DateCache struct {
	current atomic.Pointer[[]byte]
	stop    chan struct{}
}

// NewDateCache creates a cache and starts its refresh loop. Call Stop
// when the server shuts down.
func NewDateCache() *DateCache {
	dc := &DateCache{stop: make(chan struct{})}
	dc.refresh()
	go dc.run()
	return dc
}

func (dc *DateCache) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			dc.refresh()
		case <-dc.stop:
			return
		}
	}
}

func (dc *DateCache) refresh() {
	b := []byte(time.Now().UTC().Format(httpDateLayout))
	dc.current.Store(&b)
}

// Bytes returns the cached formatted date, safe for concurrent readers.
func (dc *DateCache) Bytes() []byte {
	return *dc.current.Load()
}

// Stop ends the refresh goroutine.
func (dc *DateCache) Stop() { close(dc.stop) }

// FormatUnix formats an arbitrary instant in the same IMF-fixdate layout,
// bypassing the cache.
func FormatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(httpDateLayout)
}
