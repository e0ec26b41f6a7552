// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitOptions controls a K-Means fit.
type FitOptions struct {
	// Seed is the base RNG seed. Each k gets its own stream derived from it.
	Seed int64

	// NInit is the number of k-means++ restarts; the lowest inertia wins.
	NInit int

	// MaxIter bounds the Lloyd iterations of a single restart.
	MaxIter int

	// Tol is the relative centre-shift tolerance, scaled by the mean
	// feature variance of the input.
	Tol float64
}

// DefaultFitOptions returns the reproducible defaults used for training.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Seed:    42,
		NInit:   10,
		MaxIter: 300,
		Tol:     1e-4,
	}
}

func (o FitOptions) withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.NInit <= 0 {
		o.NInit = d.NInit
	}
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	return o
}

// Model is a fitted K-Means partition in standardized feature space.
type Model struct {
	K          int
	Centroids  [][]float64
	Inertia    float64
	Silhouette float64
	Iterations int
}

// Assignment is the nearest centroid for a point plus its distance to every centroid.
type Assignment struct {
	ClusterID int
	Distances []float64
}

// Assign returns the nearest centroid to v. Ties resolve to the lowest id.
func (m *Model) Assign(v []float64) (Assignment, error) {
	if m == nil || len(m.Centroids) == 0 {
		return Assignment{}, ErrNotFitted
	}
	if len(v) != len(m.Centroids[0]) {
		return Assignment{}, fmt.Errorf("%w: vector has %d features, model expects %d", ErrInvalidInput, len(v), len(m.Centroids[0]))
	}

	a := Assignment{Distances: make([]float64, len(m.Centroids))}
	best := math.Inf(1)
	for c, centroid := range m.Centroids {
		d := floats.Distance(v, centroid, 2)
		a.Distances[c] = d
		if d < best {
			best = d
			a.ClusterID = c
		}
	}
	return a, nil
}

// Fit partitions the rows of x into k clusters and returns the best model
// over opts.NInit restarts together with the per-row labels.
func Fit(x *mat.Dense, k int, opts FitOptions) (*Model, []int, error) {
	if x == nil {
		return nil, nil, fmt.Errorf("%w: feature matrix is nil", ErrInvalidInput)
	}
	n, _ := x.Dims()
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, k)
	}
	if k > n {
		return nil, nil, fmt.Errorf("%w: k=%d exceeds %d samples", ErrInsufficientData, k, n)
	}

	opts = opts.withDefaults()
	points := rowViews(x)
	tol := opts.Tol * meanVariance(x)
	rng := rand.New(rand.NewSource(streamSeed(opts.Seed, k))) //nolint:gosec // reproducible clustering, not security

	var (
		best       *Model
		bestLabels []int
	)
	for run := 0; run < opts.NInit; run++ {
		centers := initPlusPlus(points, k, rng)
		model, labels := lloyd(points, centers, opts.MaxIter, tol)
		if best == nil || model.Inertia < best.Inertia {
			best, bestLabels = model, labels
		}
	}
	return best, bestLabels, nil
}

// streamSeed derives a per-k seed so sweeps and single fits agree.
func streamSeed(seed int64, k int) int64 {
	return seed*1_000_003 + int64(k)
}

func rowViews(x *mat.Dense) [][]float64 {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = x.RawRowView(i)
	}
	return rows
}

func meanVariance(x *mat.Dense) float64 {
	n, d := x.Dims()
	if n < 2 {
		return 0
	}
	col := make([]float64, n)
	var total float64
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(d)
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		diff := a[i] - b[i]
		s += diff * diff
	}
	return s
}

// initPlusPlus is greedy k-means++: each new centre is the best of
// 2+ln(k) candidates sampled proportionally to squared distance.
func initPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	first := points[rng.Intn(n)]
	centers = append(centers, append([]float64(nil), first...))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, first)
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	candidate := make([]float64, n)
	bestDist := make([]float64, n)

	for c := 1; c < k; c++ {
		floats.CumSum(cumulative, closest)

		bestIdx := -1
		bestPot := math.Inf(1)
		for t := 0; t < trials; t++ {
			idx := searchSorted(cumulative, rng.Float64()*potential)
			var pot float64
			for i, p := range points {
				d := math.Min(closest[i], sqDist(p, points[idx]))
				candidate[i] = d
				pot += d
			}
			if pot < bestPot {
				bestPot = pot
				bestIdx = idx
				copy(bestDist, candidate)
			}
		}

		centers = append(centers, append([]float64(nil), points[bestIdx]...))
		copy(closest, bestDist)
		potential = bestPot
	}
	return centers
}

// searchSorted returns the first index whose cumulative value is >= v.
func searchSorted(cumulative []float64, v float64) int {
	lo, hi := 0, len(cumulative)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cumulative[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= len(cumulative) {
		lo = len(cumulative) - 1
	}
	return lo
}

func nearest(p []float64, centers [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func lloyd(points [][]float64, centers [][]float64, maxIter int, tol float64) (*Model, []int) {
	k := len(centers)
	dim := len(points[0])
	labels := make([]int, len(points))
	dists := make([]float64, len(points))
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	iter := 0
	for iter < maxIter {
		iter++
		for i, p := range points {
			labels[i], dists[i] = nearest(p, centers)
		}

		for c := range sums {
			for j := range sums[c] {
				sums[c][j] = 0
			}
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		relocateEmpty(points, labels, dists, sums, counts)

		var shift float64
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centers[c], sums[c])
			copy(centers[c], sums[c])
		}
		if shift <= tol {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		var d float64
		labels[i], d = nearest(p, centers)
		inertia += d
	}

	return &Model{
		K:          k,
		Centroids:  centers,
		Inertia:    inertia,
		Iterations: iter,
	}, labels
}

// relocateEmpty moves the points farthest from their centres into empty clusters.
func relocateEmpty(points [][]float64, labels []int, dists []float64, sums [][]float64, counts []int) {
	for c := range counts {
		if counts[c] > 0 {
			continue
		}
		far := -1
		for i := range points {
			if counts[labels[i]] <= 1 {
				continue
			}
			if far < 0 || dists[i] > dists[far] {
				far = i
			}
		}
		if far < 0 {
			continue
		}
		old := labels[far]
		floats.Sub(sums[old], points[far])
		counts[old]--
		copy(sums[c], points[far])
		counts[c] = 1
		labels[far] = c
		dists[far] = 0
	}
}
