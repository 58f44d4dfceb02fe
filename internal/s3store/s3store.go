// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package s3store provides a giraffe.Store implementation backed by an
// Amazon S3 bucket or an S3-compatible service.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	aia "github.com/fcjr/aia-transport-go"

	"github.com/giraffeimg/giraffe"
)

const publicRead = "public-read"

type store struct {
	s3iface.S3API
	bucket, prefix string
}

func (s *store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	k := s.objectKey(key)
	resp, err := s.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &k,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, giraffe.NotFound(key)
		}
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	return &giraffe.Object{Data: data, ContentType: aws.StringValue(resp.ContentType)}, nil
}

func (s *store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	k := s.objectKey(key)
	input := &s3.PutObjectInput{
		Body:   aws.ReadSeekCloser(bytes.NewReader(obj.Data)),
		Bucket: &s.bucket,
		Key:    &k,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Public {
		input.ACL = aws.String(publicRead)
	}

	if _, err := s.PutObjectWithContext(ctx, input); err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// isNotFound reports whether err means the key does not exist.  GetObject
// returns NoSuchKey; some compatible services answer a bodiless 404, which
// the SDK reports as NotFound.  A missing bucket is not a missing object.
func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}

// New constructs a Store configured using the provided URL string.  URL
// should be of the form: "s3://region/bucket/optional-path-prefix".
//
// The query parameters endpoint, disableSSL=1 and s3ForcePathStyle=1 allow
// use with S3-compatible services such as MinIO.
func New(s string) (giraffe.Store, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	region, bucket, prefix, err := parseURL(u)
	if err != nil {
		return nil, err
	}

	config := aws.NewConfig().WithRegion(region)

	// allow overriding some additional config options, mostly useful when
	// working with s3-compatible services other than AWS.
	if v := u.Query().Get("endpoint"); v != "" {
		config = config.WithEndpoint(v)
	}
	if v := u.Query().Get("disableSSL"); v == "1" {
		config = config.WithDisableSSL(true)
	}
	if v := u.Query().Get("s3ForcePathStyle"); v == "1" {
		config = config.WithS3ForcePathStyle(true)
	}

	// fetch intermediate certificates the endpoint does not send.
	tr, err := aia.NewTransport()
	if err != nil {
		return nil, fmt.Errorf("s3store: creating transport: %w", err)
	}
	config = config.WithHTTPClient(&http.Client{Transport: tr})

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}

	return &store{
		S3API:  s3.New(sess),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func parseURL(u *url.URL) (region, bucket, prefix string, err error) {
	if u.Scheme != "s3" {
		return "", "", "", fmt.Errorf("s3store: unsupported scheme %q", u.Scheme)
	}
	region = u.Host
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", "", fmt.Errorf("s3store: no bucket in %q", u.Redacted())
	}
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return region, bucket, prefix, nil
}
