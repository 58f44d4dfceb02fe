// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package redisstore provides a giraffe.Store implementation backed by Redis.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/giraffeimg/giraffe"
	"github.com/giraffeimg/giraffe/internal/envelope"
)

// Store keeps each object as a single Redis string value.
type Store struct {
	pool *redis.Pool
}

// New returns a Store that connects to the Redis server at rawurl, of the
// form "redis://[:password@]host:port[/db]".  password is used when the URL
// does not carry one.
func New(rawurl, password string) *Store {
	return NewWithPool(&redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, rawurl, redis.DialPassword(password))
		},
	})
}

// NewWithPool returns a Store using connections from pool.
func NewWithPool(pool *redis.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	defer conn.Close()

	b, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
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
	if err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}

	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	defer conn.Close()

	if _, err := conn.Do("SET", key, b); err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Close releases the pool's connections.
func (s *Store) Close() error {
	return s.pool.Close()
}
