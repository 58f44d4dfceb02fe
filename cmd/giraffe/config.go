// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// loadConfig reads a TOML file of top-level flag values, such as
//
//	store = "memory:64M s3://us-east-1/images"
//	coalesce = true
//	timeout = "30s"
//
// and returns them keyed by flag name.
func loadConfig(filename string) (map[string]string, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(filename, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string, bool, int64, float64:
			values[k] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("%s: %q must be a string, number or boolean", filename, k)
		}
	}
	return values, nil
}
