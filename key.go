// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// cachePrefix is the store prefix under which derived images are written.
const cachePrefix = "cache"

// Reasons reported by InvalidPathError.
const (
	reasonNoExtension = "no extension specified"
	reasonDotSegment  = "path contains a dot segment"
)

// InvalidPathError reports an image path that has no derived key: its file
// name does not have exactly one extension, or it contains a "." or ".."
// element.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// DerivedKey returns the store key for the variant of the image at p
// described by opt.  For example, "photos/a.jpg" with a width of 400 maps to
// "cache/photos/a_400.jpg".
//
// The key is a pure function of its inputs and is the only index of derived
// images: a derived image exists if and only if an object exists at its key.
// The directory is kept verbatim, never cleaned, so distinct originals have
// distinct keys and every key stays under the cache prefix.
func DerivedKey(p string, opt Options) (string, error) {
	for _, elem := range strings.Split(p, "/") {
		if elem == "." || elem == ".." {
			return "", &InvalidPathError{Path: p, Reason: reasonDotSegment}
		}
	}
	dir, name := path.Split(p)

	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return "", &InvalidPathError{Path: p, Reason: reasonNoExtension}
	}
	stem, ext := parts[0], parts[1]

	elems := []string{stem}
	for _, v := range opt.values() {
		elems = append(elems, strconv.Itoa(v))
	}

	return cachePrefix + "/" + dir + strings.Join(elems, "_") + "." + ext, nil
}
