// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameters recognized by ParseOptions.
const (
	optWidth  = "w"
	optHeight = "h"
)

// Options specifies the transformation requested for an image.  A zero
// value for a field means no constraint on that axis.
type Options struct {
	Width  int // maximum width, in pixels
	Height int // maximum height, in pixels
}

var emptyOptions = Options{}

// Empty reports whether no transformation was requested.
func (o Options) Empty() bool {
	return o == emptyOptions
}

func (o Options) String() string {
	return fmt.Sprintf("%dx%d", o.Width, o.Height)
}

// values returns the present option values in key order: width, then height.
func (o Options) values() []int {
	var v []int
	if o.Width > 0 {
		v = append(v, o.Width)
	}
	if o.Height > 0 {
		v = append(v, o.Height)
	}
	return v
}

// ParseOptions parses the w and h query parameters.  Only the first value of
// each parameter is considered.  Values that are not positive integers are
// ignored, so malformed input degrades to "no constraint" rather than an
// error.
func ParseOptions(q url.Values) Options {
	return Options{
		Width:  ignoreNonPositive(q.Get(optWidth)),
		Height: ignoreNonPositive(q.Get(optHeight)),
	}
}

// ignoreNonPositive returns the integer value of s, or 0 if s does not parse
// or is not greater than zero.
func ignoreNonPositive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
