// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_String(t *testing.T) {
	tests := []struct {
		Options Options
		String  string
	}{
		{emptyOptions, "0x0"},
		{Options{Width: 1, Height: 2}, "1x2"},
		{Options{Width: 400}, "400x0"},
	}

	for i, tt := range tests {
		assert.Equal(t, tt.String, tt.Options.String(), "%d. Options.String", i)
	}
}

func TestOptions_Values(t *testing.T) {
	tests := []struct {
		Options Options
		Values  []int
	}{
		{emptyOptions, nil},
		{Options{Width: 1}, []int{1}},
		{Options{Height: 2}, []int{2}},
		{Options{Width: 1, Height: 2}, []int{1, 2}},
		{Options{Width: 2, Height: 1}, []int{2, 1}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.Values, tt.Options.values(), "%v.values()", tt.Options)
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		Input   string
		Options Options
	}{
		{"", emptyOptions},
		{"w=", emptyOptions},
		{"w=abc&h=def", emptyOptions},
		{"w=0&h=0", emptyOptions},
		{"w=-5", emptyOptions},
		{"w=1.5", emptyOptions},
		{"x=100&y=100", emptyOptions},

		{"w=400", Options{Width: 400}},
		{"h=300", Options{Height: 300}},
		{"w=400&h=300", Options{Width: 400, Height: 300}},
		{"h=300&w=400", Options{Width: 400, Height: 300}},
		{"w=+7", Options{Width: 7}},
		{"w=%2012%20", Options{Width: 12}},
		{"w=0&h=10", Options{Height: 10}},
		{"w=-1&h=10", Options{Height: 10}},

		// only the first value of a parameter is considered
		{"w=1&w=2", Options{Width: 1}},
		{"w=x&w=2", emptyOptions},
	}

	for _, tt := range tests {
		q, err := url.ParseQuery(tt.Input)
		require.NoError(t, err, "parsing query %q", tt.Input)
		assert.Equal(t, tt.Options, ParseOptions(q), "ParseOptions(%q)", tt.Input)
	}
}
