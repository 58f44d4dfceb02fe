// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package memstore provides a size-limited in-memory giraffe.Store, mostly
// useful as the front tier of a tiered store.
package memstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/die-net/lrucache"

	"github.com/giraffeimg/giraffe"
	"github.com/giraffeimg/giraffe/internal/envelope"
)

// DefaultSize is the memory limit used when none is specified.
const DefaultSize = "100M"

// Store holds objects in memory, evicting the least recently used when its
// size limit is exceeded.
type Store struct {
	c *lrucache.LruCache
}

// New returns a Store limited to maxSize bytes.  If maxAge is positive,
// objects also expire after that long.
func New(maxSize int64, maxAge time.Duration) *Store {
	return &Store{c: lrucache.New(maxSize, int64(maxAge.Seconds()))}
}

// Parse returns a Store configured with options of the form
// "maxSize[:maxAge]".  maxSize is a byte quantity such as "64M" or "1G"; a
// bare number is taken as megabytes.  maxAge is a duration.
func Parse(options string) (*Store, error) {
	if options == "" {
		options = DefaultSize
	}
	parts := strings.SplitN(options, ":", 2)

	size, err := parseSize(parts[0])
	if err != nil {
		return nil, err
	}

	var age time.Duration
	if len(parts) > 1 {
		age, err = time.ParseDuration(parts[1])
		if err != nil {
			return nil, fmt.Errorf("memstore: invalid max age: %w", err)
		}
	}
	return New(size, age), nil
}

func parseSize(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("memstore: invalid size %q", s)
		}
		return n * bytefmt.MEGABYTE, nil
	}
	n, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, fmt.Errorf("memstore: invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

func (s *Store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	b, ok := s.c.Get(key)
	if !ok {
		return nil, giraffe.NotFound(key)
	}
	obj, err := envelope.Unmarshal(b)
	if err != nil {
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	b, err := envelope.Marshal(obj)
	if err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	s.c.Set(key, b)
	return nil
}

// Size returns the approximate memory held by stored objects.
func (s *Store) Size() int64 {
	return s.c.Size()
}
