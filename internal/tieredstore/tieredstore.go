// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package tieredstore combines a fast store in front of a slower,
// authoritative one.
package tieredstore

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/giraffeimg/giraffe"
)

// Store reads from front first and falls back to back, copying objects found
// only in back into front.  Writes go to back, then front.
//
// back is authoritative: errors from front are never returned to the
// caller.  Failed front writes are logged at debug level and otherwise
// invisible, leaving the object to be read from back.
type Store struct {
	front, back giraffe.Store

	// Logger receives front tier errors.
	Logger zerolog.Logger
}

// New returns a Store with front placed before back.
func New(front, back giraffe.Store) *Store {
	return &Store{front: front, back: back, Logger: log.Logger}
}

func (s *Store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	obj, err := s.front.Get(ctx, key)
	if err == nil {
		return obj, nil
	}
	if !errors.Is(err, giraffe.ErrNotFound) {
		s.Logger.Debug().Err(err).Str("key", key).Msg("front tier read failed")
	}

	obj, err = s.back.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.putFront(ctx, key, obj)
	return obj, nil
}

func (s *Store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	if err := s.back.Put(ctx, key, obj); err != nil {
		return err
	}
	s.putFront(ctx, key, obj)
	return nil
}

func (s *Store) putFront(ctx context.Context, key string, obj *giraffe.Object) {
	if err := s.front.Put(ctx, key, obj); err != nil {
		s.Logger.Debug().Err(err).Str("key", key).Msg("front tier write failed")
	}
}

// Close closes both tiers, if they can be closed.
func (s *Store) Close() error {
	var errs []error
	for _, t := range []giraffe.Store{s.front, s.back} {
		if c, ok := t.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
