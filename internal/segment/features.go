// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NumFeatures is the width of the feature matrix.
const NumFeatures = 4

// FeatureNames lists the clustering features in matrix column order.
var FeatureNames = [NumFeatures]string{"Age", "Annual_Income", "Spending_Score", "Purchase_Frequency"}

// Validation bounds for a customer record.
const (
	MinAge           = 18
	MaxAge           = 100
	MinSpendingScore = 1
	MaxSpendingScore = 100
)

// Record is a single customer. Sex and CustomerID are carried for reporting
// and never enter the feature matrix.
type Record struct {
	CustomerID        int     `json:"customer_id,omitempty"`
	Sex               string  `json:"sex"`
	Age               int     `json:"age"`
	AnnualIncome      float64 `json:"annual_income"`
	SpendingScore     int     `json:"spending_score"`
	PurchaseFrequency int     `json:"purchase_frequency"`
}

// Features returns the record's clustering features in FeatureNames order.
func (r Record) Features() [NumFeatures]float64 {
	return [NumFeatures]float64{
		float64(r.Age),
		r.AnnualIncome,
		float64(r.SpendingScore),
		float64(r.PurchaseFrequency),
	}
}

// Dataset is an ordered collection of customer records.
type Dataset struct {
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// ValidateRecord checks a record against the accepted attribute ranges.
func ValidateRecord(r Record) error {
	if r.Age < MinAge || r.Age > MaxAge {
		return fmt.Errorf("%w: age %d outside [%d,%d]", ErrInvalidInput, r.Age, MinAge, MaxAge)
	}
	if math.IsNaN(r.AnnualIncome) || math.IsInf(r.AnnualIncome, 0) || r.AnnualIncome < 0 {
		return fmt.Errorf("%w: annual_income must be a non-negative number", ErrInvalidInput)
	}
	if r.SpendingScore < MinSpendingScore || r.SpendingScore > MaxSpendingScore {
		return fmt.Errorf("%w: spending_score %d outside [%d,%d]", ErrInvalidInput, r.SpendingScore, MinSpendingScore, MaxSpendingScore)
	}
	if r.PurchaseFrequency < 0 {
		return fmt.Errorf("%w: purchase_frequency must be non-negative", ErrInvalidInput)
	}
	return nil
}

// Scaler holds per-feature standardization parameters fit on a training set.
type Scaler struct {
	Mean    [NumFeatures]float64
	Std     [NumFeatures]float64
	Samples int
}

// FitScaler computes the population mean and standard deviation of each feature.
func FitScaler(ds Dataset) (*Scaler, error) {
	n := ds.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInvalidInput)
	}

	s := &Scaler{Samples: n}
	col := make([]float64, n)
	for j := 0; j < NumFeatures; j++ {
		for i, r := range ds.Records {
			v := r.Features()[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %s is not a finite number", ErrInvalidInput, i+1, FeatureNames[j])
			}
			col[i] = v
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
	}
	return s, nil
}

// Transform standardizes a single record without refitting. A feature whose
// training standard deviation is zero always maps to 0.
func (s *Scaler) Transform(r Record) ([]float64, error) {
	if s == nil || s.Samples == 0 {
		return nil, ErrNotFitted
	}
	raw := r.Features()
	out := make([]float64, NumFeatures)
	for j, v := range raw {
		out[j] = s.scale(j, v)
	}
	return out, nil
}

// TransformDataset standardizes every record of ds into a new matrix.
func (s *Scaler) TransformDataset(ds Dataset) (*mat.Dense, error) {
	if s == nil || s.Samples == 0 {
		return nil, ErrNotFitted
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInvalidInput)
	}
	x := mat.NewDense(ds.Len(), NumFeatures, nil)
	for i, r := range ds.Records {
		for j, v := range r.Features() {
			x.Set(i, j, s.scale(j, v))
		}
	}
	return x, nil
}

func (s *Scaler) scale(j int, v float64) float64 {
	if s.Std[j] == 0 {
		return 0
	}
	return (v - s.Mean[j]) / s.Std[j]
}

// Prepare fits a scaler on ds and returns the standardized feature matrix.
func Prepare(ds Dataset) (*mat.Dense, *Scaler, error) {
	s, err := FitScaler(ds)
	if err != nil {
		return nil, nil, err
	}
	x, err := s.TransformDataset(ds)
	if err != nil {
		return nil, nil, err
	}
	return x, s, nil
}
