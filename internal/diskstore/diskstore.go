// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package diskstore provides a giraffe.Store implementation that keeps
// objects in a local directory.
package diskstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"

	"github.com/peterbourgon/diskv"

	"github.com/giraffeimg/giraffe"
	"github.com/giraffeimg/giraffe/internal/envelope"
)

// Store keeps objects under a base directory, one file per key.
type Store struct {
	d *diskv.Diskv
}

// New returns a Store rooted at basePath, creating it on first write.
func New(basePath string) *Store {
	d := diskv.New(diskv.Options{
		BasePath: basePath,
		// For file "c0ffee", store file as "c0/ff/c0ffee"
		Transform: func(s string) []string { return []string{s[0:2], s[2:4]} },
	})
	return &Store{d: d}
}

func (s *Store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	b, err := s.d.Read(keyToFilename(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, giraffe.NotFound(key)
		}
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	obj, err := envelope.Unmarshal(b)
	if err != nil {
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	b, err := envelope.Marshal(obj)
	if err == nil {
		err = s.d.Write(keyToFilename(key), b)
	}
	if err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// keyToFilename maps store keys, which may contain slashes, to flat names.
func keyToFilename(key string) string {
	h := md5.New()
	_, _ = io.WriteString(h, key)
	return hex.EncodeToString(h.Sum(nil))
}
