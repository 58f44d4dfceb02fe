// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package diskstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giraffeimg/giraffe"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)

	_, err := s.Get(ctx, "photos/a.jpg")
	assert.ErrorIs(t, err, giraffe.ErrNotFound)

	obj := &giraffe.Object{Data: []byte("image"), ContentType: "image/jpeg"}
	require.NoError(t, s.Put(ctx, "photos/a.jpg", obj))

	got, err := s.Get(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, obj.Data, got.Data)
	assert.Equal(t, "image/jpeg", got.ContentType)

	name := keyToFilename("photos/a.jpg")
	_, err = os.Stat(filepath.Join(dir, name[0:2], name[2:4], name))
	assert.NoError(t, err, "object not stored under hashed path")

	// a second store on the same directory sees the object
	got, err = New(dir).Get(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, obj.Data, got.Data)
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	require.NoError(t, s.Put(ctx, "k", &giraffe.Object{Data: []byte("one")}))
	require.NoError(t, s.Put(ctx, "k", &giraffe.Object{Data: []byte("two")}))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got.Data)
}

func TestStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	require.NoError(t, s.d.Write(keyToFilename("k"), []byte("garbage")))

	_, err := s.Get(ctx, "k")
	var serr *giraffe.StoreError
	assert.ErrorAs(t, err, &serr)
	assert.NotErrorIs(t, err, giraffe.ErrNotFound)
}

func TestKeyToFilename(t *testing.T) {
	a, b := keyToFilename("cache/a_1.jpg"), keyToFilename("cache/a_2.jpg")
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, keyToFilename("cache/a_1.jpg"))
}
