// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package cache provides a thread-safe in-memory TTL cache for API responses.

Cluster statistics and elbow sweeps are expensive to compute and only change
when the model or the dataset changes. Handlers cache them under keys built
with GenerateKey from the model generation (or dataset fingerprint), so a
retrain naturally misses the old entries and the TTL reclaims them.

# Usage Example

	c := cache.New("clusters", 10*time.Minute)
	defer c.Close()

	v, hit, err := c.GetOrCompute(cache.GenerateKey("clusters", gen), func() (interface{}, error) {
	    return manager.Statistics(ctx)
	})

# Metrics

Every lookup is counted in segmentus_cache_hits_total or
segmentus_cache_misses_total, labeled with the cache name.
*/
package cache
