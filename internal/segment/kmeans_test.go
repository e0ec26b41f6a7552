// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFit_Deterministic(t *testing.T) {
	x, _, err := Prepare(threeGroups(10))
	require.NoError(t, err)

	first, labels1, err := Fit(x, 4, DefaultFitOptions())
	require.NoError(t, err)
	second, labels2, err := Fit(x, 4, DefaultFitOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Centroids, second.Centroids)
	assert.Equal(t, first.Inertia, second.Inertia)
	assert.Equal(t, labels1, labels2)
}

func TestFit_SeparatesObviousGroups(t *testing.T) {
	ds := threeGroups(6)
	x, _, err := Prepare(ds)
	require.NoError(t, err)

	model, labels, err := Fit(x, 3, DefaultFitOptions())
	require.NoError(t, err)
	require.Len(t, model.Centroids, 3)

	// Every archetype lands in a single cluster and no two archetypes share one.
	seen := map[int]bool{}
	for g := 0; g < 3; g++ {
		label := labels[g*6]
		for i := g * 6; i < (g+1)*6; i++ {
			assert.Equal(t, label, labels[i], "row %d", i)
		}
		assert.False(t, seen[label], "group %d reuses cluster %d", g, label)
		seen[label] = true
	}
	assert.Greater(t, model.Inertia, 0.0)
	assert.LessOrEqual(t, model.Iterations, DefaultFitOptions().MaxIter)
}

func TestFit_InvalidK(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{0, 0, 1, 1, 2, 2})

	_, _, err := Fit(x, 0, DefaultFitOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = Fit(x, 4, DefaultFitOptions())
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = Fit(nil, 2, DefaultFitOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFit_InertiaIsSumOfSquaredDistances(t *testing.T) {
	x, _, err := Prepare(threeGroups(5))
	require.NoError(t, err)

	model, labels, err := Fit(x, 3, DefaultFitOptions())
	require.NoError(t, err)

	n, _ := x.Dims()
	var want float64
	for i := 0; i < n; i++ {
		want += sqDist(x.RawRowView(i), model.Centroids[labels[i]])
	}
	assert.InDelta(t, want, model.Inertia, 1e-9)
}

func TestModel_Assign(t *testing.T) {
	model := &Model{K: 2, Centroids: [][]float64{{0, 0}, {3, 4}}}

	a, err := model.Assign([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0, a.ClusterID)
	require.Len(t, a.Distances, 2)
	assert.InDelta(t, 0.7071, a.Distances[0], 1e-4)

	a, err = model.Assign([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ClusterID)
	assert.InDelta(t, 5, a.Distances[0], 1e-12)
	assert.Equal(t, 0.0, a.Distances[1])

	// Equidistant points resolve to the lowest id.
	a, err = model.Assign([]float64{1.5, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, a.ClusterID)
}

func TestModel_AssignErrors(t *testing.T) {
	var unfitted *Model
	_, err := unfitted.Assign([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = (&Model{}).Assign([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	model := &Model{K: 1, Centroids: [][]float64{{0, 0, 0}}}
	_, err = model.Assign([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchSorted(t *testing.T) {
	cum := []float64{1, 3, 3, 6}
	assert.Equal(t, 0, searchSorted(cum, 0))
	assert.Equal(t, 0, searchSorted(cum, 1))
	assert.Equal(t, 1, searchSorted(cum, 2))
	assert.Equal(t, 3, searchSorted(cum, 5.5))
	assert.Equal(t, 3, searchSorted(cum, 10))
}
