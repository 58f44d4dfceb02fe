// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package giraffe serves images from an object store and derives resized
// variants on demand.  Derived images are written back to the store under a
// key computed from the original path and the requested size, so repeated
// requests for the same variant are served with a single store read.  For
// typical use of creating and using a Server, see cmd/giraffe/main.go.
package giraffe // import "github.com/giraffeimg/giraffe"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Server serves image requests.
type Server struct {
	Store Store // store holding original and derived images
	Codec Codec // codec used to derive images

	// Logger receives request and error logs.
	Logger zerolog.Logger

	// CacheIdentity causes derivations that leave the image unchanged to be
	// written to the derived key as well.  By default only resized images
	// are written back.
	CacheIdentity bool

	// Coalesce causes concurrent requests that miss on the same derived key
	// to share a single derivation.  By default each request derives and
	// writes independently.
	Coalesce bool

	// Timeout specifies a time limit for requests served by this server.
	// If zero, requests have no time limit.
	Timeout time.Duration

	fills singleflight.Group
}

// NewServer constructs a new Server.  If codec is nil, DefaultCodec is used.
func NewServer(store Store, codec Codec) *Server {
	if codec == nil {
		codec = DefaultCodec
	}
	return &Server{
		Store:  store,
		Codec:  codec,
		Logger: log.Logger,
	}
}

// ServeHTTP handles image requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var h http.Handler = http.HandlerFunc(s.serveImage)
	if s.Timeout > 0 {
		h = http.TimeoutHandler(h, s.Timeout, "Gateway timeout waiting for image.")
	}

	timer := prometheus.NewTimer(httpRequestsResponseTime)
	defer timer.ObserveDuration()
	h.ServeHTTP(w, r)
}

func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeText(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	if r.URL.Path == "/" {
		writeText(w, http.StatusOK, "Hello World")
		return
	}

	p := strings.TrimPrefix(r.URL.Path, "/")
	opt := ParseOptions(r.URL.Query())
	logger := s.Logger.With().Str("path", p).Stringer("options", opt).Logger()

	b, err := s.image(r.Context(), p, opt, logger)
	if err == nil {
		writeImage(w, b)
		return
	}

	var pathErr *InvalidPathError
	switch {
	case errors.Is(err, ErrNotFound) && opt.Empty():
		writeText(w, http.StatusNotFound, fmt.Sprintf("404: file '%s' doesn't exist", p))
	case errors.Is(err, ErrNotFound):
		writeText(w, http.StatusNotFound, fmt.Sprintf("404: original file '%s' doesn't exist", p))
	case errors.As(err, &pathErr):
		writeText(w, http.StatusNotFound, pathErr.Reason)
	default:
		logger.Error().Err(err).Msg("error serving image")
		writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// image returns the image at p transformed according to opt.  A returned
// error wrapping ErrNotFound always refers to the original image.
func (s *Server) image(ctx context.Context, p string, opt Options, logger zerolog.Logger) ([]byte, error) {
	orig, err := s.get(ctx, p)
	if err != nil {
		return nil, err
	}
	if opt.Empty() {
		logger.Debug().Msg("serving original")
		return orig.Data, nil
	}

	key, err := DerivedKey(p, opt)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("key", key).Logger()

	derived, err := s.get(ctx, key)
	if err == nil {
		requestServedFromCacheCount.Inc()
		logger.Debug().Bool("cached", true).Msg("serving derived image")
		return derived.Data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	derivedCacheMissCount.Inc()
	logger.Debug().Bool("cached", false).Msg("deriving image")
	return s.derive(ctx, key, orig.Data, opt)
}

func (s *Server) get(ctx context.Context, key string) (*Object, error) {
	obj, err := s.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		storeErrors.WithLabelValues("get").Inc()
	}
	return obj, err
}

// derive transforms img and writes the result to key.  If s.Coalesce is set,
// concurrent calls for the same key share one result.  The shared call is
// not canceled when the caller that started it goes away.
func (s *Server) derive(ctx context.Context, key string, img []byte, opt Options) ([]byte, error) {
	if !s.Coalesce {
		return s.fill(ctx, key, img, opt)
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := s.fills.Do(key, func() (interface{}, error) {
		return s.fill(shared, key, img, opt)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Server) fill(ctx context.Context, key string, img []byte, opt Options) ([]byte, error) {
	out, identity, err := Transform(s.Codec, img, opt)
	if err != nil {
		return nil, err
	}
	if identity {
		identityTransformCount.Inc()
		if !s.CacheIdentity {
			return out, nil
		}
	}

	obj := &Object{Data: out, ContentType: OutputContentType, Public: true}
	if err := s.Store.Put(ctx, key, obj); err != nil {
		storeErrors.WithLabelValues("put").Inc()
		return nil, err
	}
	return out, nil
}

func writeImage(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", OutputContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, msg)
}
