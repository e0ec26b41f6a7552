// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"context"
	"errors"
	"sync"
)

// threeGroups returns perSize distinct records around each of three
// far-apart customer archetypes.
func threeGroups(perSize int) Dataset {
	centers := []Record{
		{Age: 22, AnnualIncome: 20, SpendingScore: 10, PurchaseFrequency: 4},
		{Age: 45, AnnualIncome: 80, SpendingScore: 50, PurchaseFrequency: 25},
		{Age: 68, AnnualIncome: 145, SpendingScore: 95, PurchaseFrequency: 46},
	}
	ds := Dataset{}
	id := 1
	for _, c := range centers {
		for i := 0; i < perSize; i++ {
			jitter := i%3 - 1
			ds.Records = append(ds.Records, Record{
				CustomerID:        id,
				Sex:               []string{"Male", "Female"}[i%2],
				Age:               c.Age + jitter,
				AnnualIncome:      c.AnnualIncome + float64(i)*0.25,
				SpendingScore:     c.SpendingScore + jitter,
				PurchaseFrequency: c.PurchaseFrequency + jitter,
			})
			id++
		}
	}
	return ds
}

type staticSource struct {
	ds  Dataset
	err error
}

func (s staticSource) Load(context.Context) (Dataset, error) {
	return s.ds, s.err
}

// blockingSource parks Load until release is closed.
type blockingSource struct {
	ds      Dataset
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSource) Load(ctx context.Context) (Dataset, error) {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return s.ds, nil
	case <-ctx.Done():
		return Dataset{}, ctx.Err()
	}
}

var errNoArtifacts = errors.New("no artifacts")

type memoryPersister struct {
	mu    sync.Mutex
	saved *Artifacts
	saves int
	err   error
}

func (p *memoryPersister) Save(_ context.Context, a *Artifacts) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	cp := *a
	cp.Model.Centroids = make([][]float64, len(a.Model.Centroids))
	for i, c := range a.Model.Centroids {
		cp.Model.Centroids[i] = append([]float64(nil), c...)
	}
	p.saved = &cp
	p.saves++
	return nil
}

func (p *memoryPersister) Load(context.Context) (*Artifacts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		return nil, errNoArtifacts
	}
	cp := *p.saved
	return &cp, nil
}

// generation reports the generation of the stored pair, or "".
func (p *memoryPersister) generation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		return ""
	}
	return p.saved.Generation
}
