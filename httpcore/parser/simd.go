// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Delimiter scanning. The original implementation (original_source/src/parser/simd.rs)
// vectorizes this scan; Go's bytes.IndexByte already compiles to a SIMD
// loop on amd64/arm64 via the assembly in the runtime, so this file is the
// scalar-fallback contract the spec allows (§4.1 "Where the target
// language offers no equivalent, a scalar fallback is acceptable") wired
// straight to it rather than hand-rolling platform assembly.

package parser

import "bytes"

// scanToken advances past a run of bytes matching isValid starting at
// buf[start], returning the index of the first byte that doesn't match
// (which may be len(buf)).
func scanToken(buf []byte, start int, isValid func(byte) bool) int {
	i := start
	for i < len(buf) && isValid(buf[i]) {
		i++
	}
	return i
}

// indexSP finds the next space byte at or after start, or -1.
func indexSP(buf []byte, start int) int {
	i := bytes.IndexByte(buf[start:], ' ')
	if i < 0 {
		return -1
	}
	return start + i
}

// indexCRLF finds the offset of the next "\r\n" or lone "\n" at or after
// start, returning the index of the line terminator and its length (1 or
// 2), or (-1, 0). Lenient: accepts bare LF per §4.1.
func indexCRLF(buf []byte, start int) (int, int) {
	for i := start; i < len(buf); i++ {
		switch buf[i] {
		case '\n':
			return i, 1
		case '\r':
			if i+1 < len(buf) {
				if buf[i+1] == '\n' {
					return i, 2
				}
				// lone CR not followed by LF: treat CR itself as the
				// terminator to avoid spinning past a malformed line.
				return i, 1
			}
			return -1, 0 // could still be CRLF once more bytes arrive
		}
	}
	return -1, 0
}
