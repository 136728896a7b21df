// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Shared head-serialization helpers used by both the response writer and
// the client (SPEC_FULL.md §F): writing a header section is the same
// "name: value\r\n" loop regardless of which side of the connection owns
// the socket.

package wire

import "io"

// WriteHeaders writes h's fields in insertion order, each as
// "Name: value\r\n", followed by the blank line terminating the section.
func WriteHeaders(dst io.Writer, h Headers) error {
	var writeErr error
	h.Each(func(name HeaderName, value HeaderValue) {
		if writeErr != nil {
			return
		}
		_, writeErr = io.WriteString(dst, name.String()+": "+value.String()+"\r\n")
	})
	if writeErr != nil {
		return writeErr
	}
	_, err := io.WriteString(dst, "\r\n")
	return err
}

// WriteRequestLine writes "METHOD target HTTP/1.1\r\n".
func WriteRequestLine(dst io.Writer, method Method, target string) error {
	_, err := io.WriteString(dst, method.String()+" "+target+" HTTP/1.1\r\n")
	return err
}
