// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package gcsstore provides a giraffe.Store implementation backed by a
// Google Cloud Storage bucket.
package gcsstore

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"

	"github.com/giraffeimg/giraffe"
)

// objectHandle is the subset of *storage.ObjectHandle used by the store.
type objectHandle interface {
	NewReader(ctx context.Context) (io.ReadCloser, string, error)
	NewWriter(ctx context.Context, contentType string, public bool) io.WriteCloser
}

type bucketHandle interface {
	Object(name string) objectHandle
}

type gcsBucket struct {
	*storage.BucketHandle
}

func (b gcsBucket) Object(name string) objectHandle {
	return gcsObject{b.BucketHandle.Object(name)}
}

type gcsObject struct {
	h *storage.ObjectHandle
}

func (o gcsObject) NewReader(ctx context.Context) (io.ReadCloser, string, error) {
	r, err := o.h.NewReader(ctx)
	if err != nil {
		return nil, "", err
	}
	return r, r.Attrs.ContentType, nil
}

func (o gcsObject) NewWriter(ctx context.Context, contentType string, public bool) io.WriteCloser {
	w := o.h.NewWriter(ctx)
	w.ContentType = contentType
	if public {
		w.PredefinedACL = "publicRead"
	}
	return w
}

type store struct {
	bucket bucketHandle
	prefix string
}

func (s *store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	r, contentType, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, giraffe.NotFound(key)
		}
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	return &giraffe.Object{Data: data, ContentType: contentType}, nil
}

func (s *store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	w := s.object(key).NewWriter(ctx, obj.ContentType, obj.Public)
	if _, err := w.Write(obj.Data); err != nil {
		_ = w.Close()
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	// the object is only committed on Close
	if err := w.Close(); err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *store) object(key string) objectHandle {
	return s.bucket.Object(path.Join(s.prefix, key))
}

// New constructs a Store reading and writing objects in the specified GCS
// bucket.  If prefix is not empty, object names will be prefixed with that
// path.  Credentials should be specified using one of the mechanisms
// supported for Application Default Credentials (see
// https://cloud.google.com/docs/authentication/production)
func New(ctx context.Context, bucket, prefix string) (giraffe.Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return newWithBucket(gcsBucket{client.Bucket(bucket)}, prefix), nil
}

func newWithBucket(bucket bucketHandle, prefix string) *store {
	return &store{bucket: bucket, prefix: prefix}
}
