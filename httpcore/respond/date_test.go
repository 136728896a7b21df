// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateCacheBytesAreWellFormed(t *testing.T) {
	dc := NewDateCache()
	defer dc.Stop()

	b := dc.Bytes()
	require.NotEmpty(t, b)
	assert.Len(t, b, len("Mon, 02 Jan 2006 15:04:05 GMT"))
}

func TestFormatUnix(t *testing.T) {
	// 2000-01-01T00:00:00Z
	s := FormatUnix(946684800)
	assert.Equal(t, "Sat, 01 Jan 2000 00:00:00 GMT", s)
}
