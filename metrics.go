// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

package giraffe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestServedFromCacheCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "requests_served_from_cache",
			Help: "Number of requests served from a stored derived image.",
		})
	derivedCacheMissCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "derived_cache_misses",
			Help: "Number of requests that had to derive an image.",
		})
	identityTransformCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_transforms",
			Help: "Number of derivations that returned the original image unchanged.",
		})
	imageTransformationSummary = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "image_transformation_seconds",
		Help: "Time taken for image transformations in seconds.",
	})
	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_errors",
		Help: "Total object store failures, excluding missing objects.",
	}, []string{"op"})
	httpRequestsResponseTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "http",
		Name:      "response_time_seconds",
		Help:      "Request response times",
	})
)

func init() {
	prometheus.MustRegister(imageTransformationSummary)
	prometheus.MustRegister(requestServedFromCacheCount)
	prometheus.MustRegister(derivedCacheMissCount)
	prometheus.MustRegister(identityTransformCount)
	prometheus.MustRegister(storeErrors)
	prometheus.MustRegister(httpRequestsResponseTime)
}
