// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/segmentus/internal/segment"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

type fakeManager struct {
	mu         sync.Mutex
	loadErr    error
	trainErr   error
	loads      int
	trains     int
	generation string
}

func (f *fakeManager) Load(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr == nil {
		f.generation = "loaded-gen"
	}
	return f.loadErr
}

func (f *fakeManager) Train(context.Context, *int) (segment.TrainResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trains++
	if f.trainErr != nil {
		return segment.TrainResult{}, f.trainErr
	}
	f.generation = "trained-gen"
	return segment.TrainResult{NClusters: 3, SilhouetteScore: 0.5, Generation: f.generation}, nil
}

func (f *fakeManager) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation != ""
}

func (f *fakeManager) Generation() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

func (f *fakeManager) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.trains
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	trained []ws.ModelEvent
	loaded  []ws.ModelEvent
}

func (b *fakeBroadcaster) BroadcastModelTrained(e ws.ModelEvent) {
	b.mu.Lock()
	b.trained = append(b.trained, e)
	b.mu.Unlock()
}

func (b *fakeBroadcaster) BroadcastModelLoaded(e ws.ModelEvent) {
	b.mu.Lock()
	b.loaded = append(b.loaded, e)
	b.mu.Unlock()
}

func (b *fakeBroadcaster) snapshot() (trained, loaded []ws.ModelEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ws.ModelEvent(nil), b.trained...), append([]ws.ModelEvent(nil), b.loaded...)
}

// runFor serves svc until d elapses and returns Serve's result.
func runFor(t *testing.T, svc *ModelLifecycleService, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestModelLifecycleService_Interface(t *testing.T) {
	var _ suture.Service = (*ModelLifecycleService)(nil)
	var _ ModelManager = (*segment.Manager)(nil)
	var _ ModelBroadcaster = (*ws.Hub)(nil)
}

func TestModelLifecycleService_LoadsAtStartup(t *testing.T) {
	mgr := &fakeManager{}
	bc := &fakeBroadcaster{}
	svc := NewModelLifecycleService(mgr, bc, ModelLifecycleConfig{TrainOnStartup: true}, zerolog.Nop())

	if err := runFor(t, svc, 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	loads, trains := mgr.counts()
	if loads != 1 || trains != 0 {
		t.Errorf("loads/trains = %d/%d, want 1/0", loads, trains)
	}
	trained, loaded := bc.snapshot()
	if len(loaded) != 1 || loaded[0].Generation != "loaded-gen" || len(trained) != 0 {
		t.Errorf("loaded=%v trained=%v", loaded, trained)
	}
}

func TestModelLifecycleService_TrainsWhenLoadFails(t *testing.T) {
	mgr := &fakeManager{loadErr: segment.ErrModelNotReady}
	bc := &fakeBroadcaster{}
	svc := NewModelLifecycleService(mgr, bc, ModelLifecycleConfig{TrainOnStartup: true}, zerolog.Nop())

	_ = runFor(t, svc, 50*time.Millisecond)

	_, trains := mgr.counts()
	if trains != 1 {
		t.Errorf("trains = %d, want 1", trains)
	}
	trained, _ := bc.snapshot()
	if len(trained) != 1 || trained[0].TriggeredBy != "startup" || trained[0].NClusters != 3 {
		t.Errorf("trained events = %+v", trained)
	}
}

func TestModelLifecycleService_NoTrainWhenDisabled(t *testing.T) {
	mgr := &fakeManager{loadErr: segment.ErrModelNotReady}
	svc := NewModelLifecycleService(mgr, nil, ModelLifecycleConfig{}, zerolog.Nop())

	_ = runFor(t, svc, 30*time.Millisecond)

	if _, trains := mgr.counts(); trains != 0 {
		t.Errorf("trains = %d, want 0", trains)
	}
}

func TestModelLifecycleService_TrainFailureDoesNotCrash(t *testing.T) {
	mgr := &fakeManager{loadErr: segment.ErrModelNotReady, trainErr: segment.ErrInsufficientData}
	bc := &fakeBroadcaster{}
	svc := NewModelLifecycleService(mgr, bc, ModelLifecycleConfig{TrainOnStartup: true}, zerolog.Nop())

	if err := runFor(t, svc, 30*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context deadline", err)
	}
	if trained, _ := bc.snapshot(); len(trained) != 0 {
		t.Errorf("unexpected broadcast: %+v", trained)
	}
}

func TestModelLifecycleService_PeriodicRetrain(t *testing.T) {
	mgr := &fakeManager{}
	bc := &fakeBroadcaster{}
	svc := NewModelLifecycleService(mgr, bc, ModelLifecycleConfig{RetrainInterval: 20 * time.Millisecond}, zerolog.Nop())

	_ = runFor(t, svc, 110*time.Millisecond)

	_, trains := mgr.counts()
	if trains < 2 {
		t.Errorf("trains = %d, want at least 2", trains)
	}
	trained, _ := bc.snapshot()
	for _, e := range trained {
		if e.TriggeredBy != "scheduler" {
			t.Errorf("TriggeredBy = %q, want scheduler", e.TriggeredBy)
		}
	}
}

func TestModelLifecycleService_SkipsWhenTrainingInProgress(t *testing.T) {
	mgr := &fakeManager{trainErr: segment.ErrTrainingInProgress}
	bc := &fakeBroadcaster{}
	svc := NewModelLifecycleService(mgr, bc, ModelLifecycleConfig{RetrainInterval: 10 * time.Millisecond}, zerolog.Nop())

	if err := runFor(t, svc, 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if trained, _ := bc.snapshot(); len(trained) != 0 {
		t.Errorf("unexpected broadcast: %+v", trained)
	}
}

func TestModelLifecycleService_StartupRunsOnce(t *testing.T) {
	mgr := &fakeManager{}
	svc := NewModelLifecycleService(mgr, nil, ModelLifecycleConfig{}, zerolog.Nop())

	_ = runFor(t, svc, 10*time.Millisecond)
	_ = runFor(t, svc, 10*time.Millisecond)

	if loads, _ := mgr.counts(); loads != 1 {
		t.Errorf("loads = %d, want 1 across restarts", loads)
	}
}
