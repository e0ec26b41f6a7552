// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package middleware provides chi-compatible HTTP middleware for the API.

Key Components:

  - RequestID: UUID request IDs propagated to the response and the logger
  - AccessLog: one structured zerolog line per request
  - PrometheusMetrics: request counts and latency per chi route pattern
  - Compression: gzip for large responses such as rendered charts

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)

Metrics are labeled with the route pattern ("/api/v1/profiles/{id}"), not
the raw path, so label cardinality stays bounded.
*/
package middleware
