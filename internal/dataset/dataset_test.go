// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/segmentus/internal/segment"
)

func TestRead_ColumnsByName(t *testing.T) {
	in := "Purchase_Frequency,Age,Sex,Spending_Score,Annual_Income,CustomerID\n" +
		"12,35,Male,75,65.5,7\n" +
		"3,61,Female,20,120,8\n"

	ds, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	want := segment.Record{CustomerID: 7, Sex: "Male", Age: 35, AnnualIncome: 65.5, SpendingScore: 75, PurchaseFrequency: 12}
	if ds.Records[0] != want {
		t.Errorf("Records[0] = %+v, want %+v", ds.Records[0], want)
	}
	if ds.Records[1].Sex != "Female" || ds.Records[1].AnnualIncome != 120 {
		t.Errorf("Records[1] = %+v", ds.Records[1])
	}
}

func TestRead_WholeNumberFloats(t *testing.T) {
	in := "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30.0,50.5,40,10.0\n"

	ds, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	r := ds.Records[0]
	if r.Age != 30 || r.SpendingScore != 40 || r.PurchaseFrequency != 10 || r.AnnualIncome != 50.5 {
		t.Errorf("Records[0] = %+v", r)
	}
}

func TestRead_OptionalColumns(t *testing.T) {
	in := "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,50,40,10\n31,51,41,11\n"

	ds, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Records[0].CustomerID != 1 || ds.Records[1].CustomerID != 2 {
		t.Errorf("expected sequential ids, got %d and %d", ds.Records[0].CustomerID, ds.Records[1].CustomerID)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "empty", input: "", wantMsg: "empty"},
		{name: "missing column", input: "Age,Annual_Income,Spending_Score\n1,2,3\n", wantMsg: "Purchase_Frequency"},
		{
			name:    "non numeric cell",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,50,40,10\n30,abc,40,10\n",
			wantMsg: "line 3",
		},
		{
			name:    "empty cell",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,,40,10\n",
			wantMsg: "Annual_Income",
		},
		{
			name:    "age out of range",
			input:   "CustomerID,Sex,Age,Annual_Income,Spending_Score,Purchase_Frequency\n1,Male,500,50,40,10\n",
			wantMsg: "age 500",
		},
		{
			name:    "negative income",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,-10,40,10\n",
			wantMsg: "annual_income",
		},
		{
			name:    "spending score out of range",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,50,250,10\n",
			wantMsg: "spending_score 250",
		},
		{
			name:    "negative purchase frequency",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,50,40,-3\n",
			wantMsg: "purchase_frequency",
		},
		{
			name:    "fractional age",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n25.6,50,40,10\n",
			wantMsg: "column Age",
		},
		{
			name:    "fractional spending score",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n30,50,40.4,10\n",
			wantMsg: "column Spending_Score",
		},
		{
			name:    "integer overflow",
			input:   "Age,Annual_Income,Spending_Score,Purchase_Frequency\n1e300,50,40,10\n",
			wantMsg: "not an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, segment.ErrInvalidInput) {
				t.Fatalf("Read() error = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestGenerate_DeterministicAndBounded(t *testing.T) {
	a := Generate(500, DefaultSeed)
	b := Generate(500, DefaultSeed)
	if a.Len() != 500 {
		t.Fatalf("Len() = %d, want 500", a.Len())
	}

	for i := range a.Records {
		if a.Records[i] != b.Records[i] {
			t.Fatalf("row %d differs between runs with the same seed", i)
		}
		r := a.Records[i]
		if r.CustomerID != i+1 {
			t.Errorf("row %d has CustomerID %d", i, r.CustomerID)
		}
		if r.Sex != "Male" && r.Sex != "Female" {
			t.Errorf("row %d has sex %q", i, r.Sex)
		}
		if r.Age < 18 || r.Age > 69 {
			t.Errorf("row %d age %d out of range", i, r.Age)
		}
		if r.AnnualIncome < 15 || r.AnnualIncome > 150 {
			t.Errorf("row %d income %v out of range", i, r.AnnualIncome)
		}
		if r.SpendingScore < 1 || r.SpendingScore > 99 {
			t.Errorf("row %d spending %d out of range", i, r.SpendingScore)
		}
		if r.PurchaseFrequency < 1 || r.PurchaseFrequency > 49 {
			t.Errorf("row %d frequency %d out of range", i, r.PurchaseFrequency)
		}
		if err := segment.ValidateRecord(r); err != nil {
			t.Errorf("row %d fails validation: %v", i, err)
		}
	}

	c := Generate(500, 7)
	same := true
	for i := range a.Records {
		if a.Records[i] != c.Records[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical datasets")
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "customers.csv")
	want := Generate(50, DefaultSeed)

	if err := Write(path, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Len() != want.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), want.Len())
	}
	for i := range want.Records {
		if got.Records[i] != want.Records[i] {
			t.Errorf("row %d = %+v, want %+v", i, got.Records[i], want.Records[i])
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the dataset file, found %d entries", len(entries))
	}
}

func TestSource_GeneratesWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.csv")
	src := NewSource(path, zerolog.Nop())
	src.Rows = 100

	ds, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", ds.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("generated dataset was not written: %v", err)
	}

	again, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.Len() != ds.Len() || again.Records[10] != ds.Records[10] {
		t.Error("second load did not reuse the written dataset")
	}
}

func TestSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(filepath.Join(t.TempDir(), "x.csv"), zerolog.Nop()).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}
