// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestValidateRecord(t *testing.T) {
	valid := Record{Sex: "Male", Age: 35, AnnualIncome: 65, SpendingScore: 75, PurchaseFrequency: 12}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr bool
	}{
		{"valid", func(r *Record) {}, false},
		{"min age", func(r *Record) { r.Age = 18 }, false},
		{"max age", func(r *Record) { r.Age = 100 }, false},
		{"age too low", func(r *Record) { r.Age = 17 }, true},
		{"age too high", func(r *Record) { r.Age = 150 }, true},
		{"zero income", func(r *Record) { r.AnnualIncome = 0 }, false},
		{"negative income", func(r *Record) { r.AnnualIncome = -1 }, true},
		{"nan income", func(r *Record) { r.AnnualIncome = math.NaN() }, true},
		{"spending too low", func(r *Record) { r.SpendingScore = 0 }, true},
		{"spending too high", func(r *Record) { r.SpendingScore = 101 }, true},
		{"negative frequency", func(r *Record) { r.PurchaseFrequency = -1 }, true},
		{"zero frequency", func(r *Record) { r.PurchaseFrequency = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := ValidateRecord(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrepare_StandardizesColumns(t *testing.T) {
	ds := threeGroups(5)
	x, scaler, err := Prepare(ds)
	require.NoError(t, err)

	n, d := x.Dims()
	require.Equal(t, ds.Len(), n)
	require.Equal(t, NumFeatures, d)
	assert.Equal(t, ds.Len(), scaler.Samples)

	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = x.At(i, j)
		}
		mean := floats.Sum(col) / float64(n)
		var variance float64
		for _, v := range col {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(n)
		assert.InDelta(t, 0, mean, 1e-9, "column %s mean", FeatureNames[j])
		assert.InDelta(t, 1, variance, 1e-9, "column %s variance", FeatureNames[j])
	}
}

func TestPrepare_EmptyDataset(t *testing.T) {
	_, _, err := Prepare(Dataset{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScaler_ZeroVarianceColumnMapsToZero(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Age: 30, AnnualIncome: 10, SpendingScore: 50, PurchaseFrequency: 1},
		{Age: 30, AnnualIncome: 20, SpendingScore: 50, PurchaseFrequency: 2},
		{Age: 30, AnnualIncome: 30, SpendingScore: 50, PurchaseFrequency: 3},
	}}
	x, scaler, err := Prepare(ds)
	require.NoError(t, err)

	for i := 0; i < ds.Len(); i++ {
		assert.Equal(t, 0.0, x.At(i, 0))
		assert.Equal(t, 0.0, x.At(i, 2))
	}

	v, err := scaler.Transform(Record{Age: 90, AnnualIncome: 20, SpendingScore: 1, PurchaseFrequency: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v[0])
	assert.Equal(t, 0.0, v[2])
	assert.InDelta(t, 0, v[1], 1e-12)
	assert.False(t, math.IsNaN(v[3]))
}

func TestScaler_TransformMatchesDatasetRow(t *testing.T) {
	ds := threeGroups(4)
	x, scaler, err := Prepare(ds)
	require.NoError(t, err)

	for i, r := range ds.Records {
		v, err := scaler.Transform(r)
		require.NoError(t, err)
		for j := range v {
			assert.InDelta(t, x.At(i, j), v[j], 1e-12)
		}
	}
}

func TestScaler_TransformUnfitted(t *testing.T) {
	var s *Scaler
	_, err := s.Transform(Record{Age: 30})
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = (&Scaler{}).Transform(Record{Age: 30})
	assert.ErrorIs(t, err, ErrNotFitted)
}
