// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package tieredstore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giraffeimg/giraffe"
	"github.com/giraffeimg/giraffe/internal/memstore"
)

// failingStore fails every operation.
type failingStore struct {
	closed     bool
	gets, puts int
}

func (f *failingStore) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	f.gets++
	return nil, &giraffe.StoreError{Op: "get", Key: key, Err: errors.New("down")}
}

func (f *failingStore) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	f.puts++
	return &giraffe.StoreError{Op: "put", Key: key, Err: errors.New("down")}
}

func (f *failingStore) Close() error {
	f.closed = true
	return nil
}

func TestStore_FillsFront(t *testing.T) {
	ctx := context.Background()
	front, back := memstore.New(1<<20, 0), memstore.New(1<<20, 0)
	require.NoError(t, back.Put(ctx, "a", &giraffe.Object{Data: []byte("a")}))

	s := New(front, back)
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got.Data)

	got, err = front.Get(ctx, "a")
	require.NoError(t, err, "object not copied into front tier")
	assert.Equal(t, []byte("a"), got.Data)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, giraffe.ErrNotFound)
}

func TestStore_PutWritesBoth(t *testing.T) {
	ctx := context.Background()
	front, back := memstore.New(1<<20, 0), memstore.New(1<<20, 0)
	s := New(front, back)

	require.NoError(t, s.Put(ctx, "k", &giraffe.Object{Data: []byte("v")}))
	for _, tier := range []giraffe.Store{front, back} {
		_, err := tier.Get(ctx, "k")
		assert.NoError(t, err)
	}
}

func TestStore_FrontErrorsIgnored(t *testing.T) {
	ctx := context.Background()
	back := memstore.New(1<<20, 0)
	front := &failingStore{}
	s := New(front, back)
	buf := new(bytes.Buffer)
	s.Logger = zerolog.New(buf).Level(zerolog.DebugLevel)

	require.NoError(t, s.Put(ctx, "k", &giraffe.Object{Data: []byte("v")}))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got.Data)

	// one write from Put, one read and one fill from Get
	assert.Equal(t, 2, front.puts)
	assert.Equal(t, 1, front.gets)
	logged := buf.String()
	assert.Equal(t, 2, strings.Count(logged, "front tier write failed"), logged)
	assert.Equal(t, 1, strings.Count(logged, "front tier read failed"), logged)

	require.NoError(t, s.Close())
	assert.True(t, front.closed)
}

func TestStore_BackErrorsReturned(t *testing.T) {
	ctx := context.Background()
	s := New(memstore.New(1<<20, 0), &failingStore{})

	var serr *giraffe.StoreError
	_, err := s.Get(ctx, "k")
	assert.ErrorAs(t, err, &serr)
	assert.ErrorAs(t, s.Put(ctx, "k", &giraffe.Object{}), &serr)
}
