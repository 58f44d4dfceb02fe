// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// giraffe starts an HTTP server that serves images from an object store,
// resizing them on request.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/giraffeimg/giraffe"
	"github.com/giraffeimg/giraffe/internal/diskstore"
	"github.com/giraffeimg/giraffe/internal/gcsstore"
	"github.com/giraffeimg/giraffe/internal/memstore"
	"github.com/giraffeimg/giraffe/internal/redisstore"
	"github.com/giraffeimg/giraffe/internal/s3store"
	"github.com/giraffeimg/giraffe/internal/sqlitestore"
	"github.com/giraffeimg/giraffe/internal/tieredstore"
	"github.com/giraffeimg/giraffe/third_party/envy"
)

const shutdownTimeout = 10 * time.Second

var addr = flag.String("addr", "0.0.0.0:9876", "TCP address to listen on")
var storeURLs = flag.String("store", "", "space separated list of stores holding images, fastest first")
var bucket = flag.String("bucket", "", "S3 bucket holding images, used when no store is given")
var region = flag.String("region", "us-east-1", "region of the S3 bucket")
var cacheIdentity = flag.Bool("cacheIdentity", false, "also store derived images identical to their original")
var coalesce = flag.Bool("coalesce", false, "share one derivation between concurrent requests for the same image")
var timeout = flag.Duration("timeout", 0, "time limit for requests served by this server")
var verbose = flag.Bool("verbose", false, "print verbose logging messages")
var configFile = flag.String("config", "", "TOML file providing values for flags not otherwise set")

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := envy.Parse("GIRAFFE"); err != nil {
		log.Fatal().Err(err).Msg("error reading environment")
	}
	flag.Parse()

	if *configFile != "" {
		values, err := loadConfig(*configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("error reading config file")
		}
		if err := envy.Fill(flag.CommandLine, values); err != nil {
			log.Fatal().Err(err).Str("config", *configFile).Msg("error applying config file")
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	stores := *storeURLs
	if stores == "" && *bucket != "" {
		stores = fmt.Sprintf("s3://%s/%s", *region, *bucket)
	}
	if stores == "" {
		log.Fatal().Msg("no store configured: set -store or -bucket")
	}

	store, err := openStores(context.Background(), stores)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening store")
	}

	s := giraffe.NewServer(store, nil)
	s.CacheIdentity = *cacheIdentity
	s.Coalesce = *coalesce
	s.Timeout = *timeout

	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/").Handler(s)

	server := &http.Server{
		Addr:    *addr,
		Handler: r,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("giraffe listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("error starting server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}
	if c, ok := store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("error closing store")
		}
	}
}

// openStores opens each store in the space separated list urls.  Multiple
// stores are tiered, the first in front of the rest.
func openStores(ctx context.Context, urls string) (giraffe.Store, error) {
	var stores []giraffe.Store
	for _, v := range strings.Fields(urls) {
		s, err := parseStore(ctx, v)
		if err != nil {
			for _, opened := range stores {
				if c, ok := opened.(io.Closer); ok {
					c.Close()
				}
			}
			return nil, err
		}
		stores = append(stores, s)
	}
	if len(stores) == 0 {
		return nil, errors.New("no store specified")
	}

	store := stores[len(stores)-1]
	for i := len(stores) - 2; i >= 0; i-- {
		store = tieredstore.New(stores[i], store)
	}
	return store, nil
}

// parseStore parses s and returns the specified Store implementation.
func parseStore(ctx context.Context, s string) (giraffe.Store, error) {
	if s == "memory" {
		return memstore.Parse("")
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("error parsing store flag: %w", err)
	}

	switch u.Scheme {
	case "gcs":
		return gcsstore.New(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "memory":
		return memstore.Parse(u.Opaque)
	case "redis", "rediss":
		return redisstore.New(u.String(), os.Getenv("REDIS_PASSWORD")), nil
	case "s3":
		return s3store.New(u.String())
	case "sqlite":
		if u.Path == "" {
			return nil, fmt.Errorf("no database path in store %q", s)
		}
		return sqlitestore.Open(u.Path)
	case "file":
		return diskstore.New(u.Path), nil
	case "":
		return diskstore.New(s), nil
	default:
		return nil, fmt.Errorf("unsupported store %q", s)
	}
}
