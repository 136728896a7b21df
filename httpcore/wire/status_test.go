// Copyright (c) 2021-present, The Flint Authors.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOfKnownCode(t *testing.T) {
	s := Of(StatusNotFound)
	assert.Equal(t, "404 Not Found", s.String())
}

func TestStatusOfUnknownCodeHasNoReason(t *testing.T) {
	s := Of(599)
	assert.Equal(t, "599", s.String())
}

func TestStatusWithReasonOverridesCanonical(t *testing.T) {
	s := Of(StatusOK).WithReason("Great Success")
	assert.Equal(t, "200 Great Success", s.String())
}

func TestSuppressesBody(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{StatusContinue, true},
		{StatusNoContent, true},
		{StatusNotModified, true},
		{StatusOK, false},
		{StatusNotFound, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Of(c.code).SuppressesBody(), "code %d", c.code)
	}
}
