// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Default candidate range for automatic cluster count selection.
const (
	DefaultKMin = 2
	DefaultKMax = 10
)

// KMetrics holds the fit diagnostics for one candidate k.
type KMetrics struct {
	K          int     `json:"k"`
	Inertia    float64 `json:"inertia"`
	Silhouette float64 `json:"silhouette_score"`

	model  *Model
	labels []int
}

// ElbowData is the full k sweep used for diagnostic charts.
type ElbowData struct {
	OptimalK         int       `json:"optimal_k"`
	KRange           []int     `json:"k_range"`
	Inertias         []float64 `json:"inertias"`
	SilhouetteScores []float64 `json:"silhouette_scores"`
}

// NewElbowData flattens a sweep into chart-ready slices.
func NewElbowData(optimalK int, metrics []KMetrics) ElbowData {
	e := ElbowData{
		OptimalK:         optimalK,
		KRange:           make([]int, len(metrics)),
		Inertias:         make([]float64, len(metrics)),
		SilhouetteScores: make([]float64, len(metrics)),
	}
	for i, m := range metrics {
		e.KRange[i] = m.K
		e.Inertias[i] = m.Inertia
		e.SilhouetteScores[i] = m.Silhouette
	}
	return e
}

// SelectK fits every k in [kMin, min(kMax, n-1)] and returns the k with the
// highest silhouette score. Ties go to the smallest k.
func SelectK(ctx context.Context, x *mat.Dense, kMin, kMax int, opts FitOptions) (int, []KMetrics, error) {
	if x == nil {
		return 0, nil, fmt.Errorf("%w: feature matrix is nil", ErrInvalidInput)
	}
	if kMin < 2 {
		kMin = 2
	}
	n, _ := x.Dims()
	if n < kMin+1 {
		return 0, nil, fmt.Errorf("%w: %d samples, need at least %d", ErrInsufficientData, n, kMin+1)
	}
	upper := min(kMax, n-1)
	if upper < kMin {
		return 0, nil, fmt.Errorf("%w: empty k range [%d,%d]", ErrInvalidInput, kMin, kMax)
	}

	metrics := make([]KMetrics, upper-kMin+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range metrics {
		k := kMin + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, labels, err := Fit(x, k, opts)
			if err != nil {
				return fmt.Errorf("fit k=%d: %w", k, err)
			}
			score, err := Silhouette(x, labels, k)
			if err != nil {
				return fmt.Errorf("silhouette k=%d: %w", k, err)
			}
			model.Silhouette = score
			metrics[i] = KMetrics{K: k, Inertia: model.Inertia, Silhouette: score, model: model, labels: labels}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	return metrics[bestK(metrics)].K, metrics, nil
}

// bestK returns the index of the highest silhouette in metrics, which must be
// ordered by ascending k. Ties keep the smallest k.
func bestK(metrics []KMetrics) int {
	best := 0
	for i := range metrics {
		if metrics[i].Silhouette > metrics[best].Silhouette {
			best = i
		}
	}
	return best
}
