// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package dataset provides the customer CSV that the clustering model is
// trained against. When no file exists a deterministic synthetic dataset is
// generated and written to the configured path so later runs reuse it.
package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/segmentus/internal/segment"
)

// Defaults for synthetic generation.
const (
	DefaultRows = 5000
	DefaultSeed = 42
)

// Column headers in the canonical file layout.
const (
	ColCustomerID        = "CustomerID"
	ColSex               = "Sex"
	ColAge               = "Age"
	ColAnnualIncome      = "Annual_Income"
	ColSpendingScore     = "Spending_Score"
	ColPurchaseFrequency = "Purchase_Frequency"
)

// Header is the column order used when writing a dataset.
var Header = []string{ColCustomerID, ColSex, ColAge, ColAnnualIncome, ColSpendingScore, ColPurchaseFrequency}

// Feature columns must be present; CustomerID and Sex are optional.
var requiredColumns = []string{ColAge, ColAnnualIncome, ColSpendingScore, ColPurchaseFrequency}

// Source loads the training dataset from Path, generating it on first use.
type Source struct {
	Path   string
	Rows   int
	Seed   int64
	Logger zerolog.Logger
}

// NewSource creates a source with default generation parameters.
func NewSource(path string, logger zerolog.Logger) *Source {
	return &Source{
		Path:   path,
		Rows:   DefaultRows,
		Seed:   DefaultSeed,
		Logger: logger.With().Str("component", "dataset").Logger(),
	}
}

// Load implements segment.DatasetSource.
func (s *Source) Load(ctx context.Context) (segment.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return segment.Dataset{}, err
	}

	ds, err := ReadFile(s.Path)
	if err == nil {
		s.Logger.Debug().Str("path", s.Path).Int("rows", ds.Len()).Msg("Loaded dataset")
		return ds, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return segment.Dataset{}, err
	}

	rows := s.Rows
	if rows <= 0 {
		rows = DefaultRows
	}
	ds = Generate(rows, s.Seed)
	s.Logger.Info().Str("path", s.Path).Int("rows", rows).Int64("seed", s.Seed).Msg("Dataset not found, generated synthetic customers")

	if err := Write(s.Path, ds); err != nil {
		// The generated data is still usable for this run.
		s.Logger.Warn().Err(err).Str("path", s.Path).Msg("Failed to save generated dataset")
	}
	return ds, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (segment.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return segment.Dataset{}, err
	}
	defer f.Close()

	return Read(f)
}

// Read parses a customer CSV. Columns are located by header name, so their
// order in the file does not matter.
func Read(r io.Reader) (segment.Dataset, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return segment.Dataset{}, fmt.Errorf("%w: dataset is empty", segment.ErrInvalidInput)
		}
		return segment.Dataset{}, fmt.Errorf("%w: read header: %v", segment.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return segment.Dataset{}, fmt.Errorf("%w: missing column %q", segment.ErrInvalidInput, col)
		}
	}

	var ds segment.Dataset
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return segment.Dataset{}, fmt.Errorf("%w: line %d: %v", segment.ErrInvalidInput, line, err)
		}

		row, err := parseRow(rec, index, line)
		if err != nil {
			return segment.Dataset{}, err
		}
		if row.CustomerID == 0 {
			row.CustomerID = ds.Len() + 1
		}
		ds.Records = append(ds.Records, row)
	}
	return ds, nil
}

func parseRow(rec []string, index map[string]int, line int) (segment.Record, error) {
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	number := func(col string) (float64, error) {
		v, _ := cell(col)
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: line %d: column %s: %q is not a number", segment.ErrInvalidInput, line, col, v)
		}
		return f, nil
	}
	// Integer columns must hold whole numbers that fit an int32; 25.6 is
	// rejected rather than rounded.
	integer := func(col string) (int, error) {
		f, err := number(col)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			v, _ := cell(col)
			return 0, fmt.Errorf("%w: line %d: column %s: %q is not an integer", segment.ErrInvalidInput, line, col, v)
		}
		return int(f), nil
	}

	var r segment.Record
	if v, ok := cell(ColCustomerID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return r, fmt.Errorf("%w: line %d: column %s: %q is not an integer", segment.ErrInvalidInput, line, ColCustomerID, v)
		}
		r.CustomerID = id
	}
	r.Sex, _ = cell(ColSex)

	var err error
	if r.Age, err = integer(ColAge); err != nil {
		return r, err
	}
	if r.AnnualIncome, err = number(ColAnnualIncome); err != nil {
		return r, err
	}
	if r.SpendingScore, err = integer(ColSpendingScore); err != nil {
		return r, err
	}
	if r.PurchaseFrequency, err = integer(ColPurchaseFrequency); err != nil {
		return r, err
	}

	if err := segment.ValidateRecord(r); err != nil {
		return r, fmt.Errorf("line %d: %w", line, err)
	}
	return r, nil
}

// Generate builds a deterministic synthetic dataset of n customers.
func Generate(n int, seed int64) segment.Dataset {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sample data

	sexes := [2]string{"Male", "Female"}
	ds := segment.Dataset{Records: make([]segment.Record, n)}
	for i := range ds.Records {
		ds.Records[i] = segment.Record{
			CustomerID:        i + 1,
			Sex:               sexes[rng.Intn(2)],
			Age:               18 + rng.Intn(52),
			AnnualIncome:      math.Round((15+rng.Float64()*135)*10) / 10,
			SpendingScore:     1 + rng.Intn(99),
			PurchaseFrequency: 1 + rng.Intn(49),
		}
	}
	return ds
}

// Write stores ds as CSV at path through a temporary file and rename.
func Write(path string, ds segment.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ds.Records {
		err := w.Write([]string{
			strconv.Itoa(r.CustomerID),
			r.Sex,
			strconv.Itoa(r.Age),
			strconv.FormatFloat(r.AnnualIncome, 'f', -1, 64),
			strconv.Itoa(r.SpendingScore),
			strconv.Itoa(r.PurchaseFrequency),
		})
		if err != nil {
			tmp.Close()
			return fmt.Errorf("write row %d: %w", r.CustomerID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}
