// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when no object exists at a key.
// Implementations may wrap it; callers should test with errors.Is.
var ErrNotFound = errors.New("object not found")

// Object is an image stored at a key.
type Object struct {
	Data        []byte
	ContentType string

	// Public requests that the object be publicly readable, for backends
	// that support access control.  It is only meaningful on Put.
	Public bool
}

// Store provides access to the object store holding original and derived
// images.  Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the object at key.  If no object exists, the returned
	// error satisfies errors.Is(err, ErrNotFound).  Any other error means
	// the store could not be consulted.
	Get(ctx context.Context, key string) (*Object, error)

	// Put writes obj at key, replacing any existing object.
	Put(ctx context.Context, key string, obj *Object) error
}

// StoreError records a failed store operation other than a missing object.
type StoreError struct {
	Op  string // "get" or "put"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFound returns an error wrapping ErrNotFound for key.
func NotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
