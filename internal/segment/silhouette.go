// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette returns the mean silhouette coefficient of a labeling.
//
// For each sample, a is the mean distance to the other members of its own
// cluster and b the smallest mean distance to any other cluster; the
// sample scores (b-a)/max(a,b). Members of singleton clusters score 0.
// The labeling must contain between 2 and n-1 distinct clusters.
func Silhouette(x *mat.Dense, labels []int, k int) (float64, error) {
	if x == nil {
		return 0, fmt.Errorf("%w: feature matrix is nil", ErrInvalidInput)
	}
	n, _ := x.Dims()
	if len(labels) != n {
		return 0, fmt.Errorf("%w: %d labels for %d samples", ErrInvalidInput, len(labels), n)
	}

	sizes := make([]int, k)
	for _, l := range labels {
		if l < 0 || l >= k {
			return 0, fmt.Errorf("%w: label %d outside [0,%d)", ErrInvalidInput, l, k)
		}
		sizes[l]++
	}
	distinct := 0
	for _, s := range sizes {
		if s > 0 {
			distinct++
		}
	}
	if distinct < 2 || distinct > n-1 {
		return 0, fmt.Errorf("%w: silhouette needs 2..%d clusters, got %d", ErrInsufficientData, n-1, distinct)
	}

	points := rowViews(x)
	sums := make([]float64, k)
	var total float64
	for i, p := range points {
		for c := range sums {
			sums[c] = 0
		}
		for j, q := range points {
			if i == j {
				continue
			}
			sums[labels[j]] += floats.Distance(p, q, 2)
		}

		own := labels[i]
		if sizes[own] <= 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c, s := range sums {
			if c == own || sizes[c] == 0 {
				continue
			}
			b = math.Min(b, s/float64(sizes[c]))
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n), nil
}
