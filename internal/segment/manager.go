// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/segmentus/internal/metrics"
)

// State is the lifecycle state of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateTrained
	StatePersisted
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateTrained:
		return "trained"
	case StatePersisted:
		return "persisted"
	case StateLoaded:
		return "loaded"
	default:
		return "uninitialized"
	}
}

// DatasetSource supplies the training dataset.
type DatasetSource interface {
	Load(ctx context.Context) (Dataset, error)
}

// Artifacts is the persisted pair of a scaler and the model fit against it.
type Artifacts struct {
	Generation string
	TrainedAt  time.Time
	Scaler     Scaler
	Model      Model
}

// Persister stores and retrieves artifact pairs. Load must fail when either
// half is missing or the halves belong to different generations.
type Persister interface {
	Save(ctx context.Context, a *Artifacts) error
	Load(ctx context.Context) (*Artifacts, error)
}

// Config configures a Manager.
type Config struct {
	KMin         int
	KMax         int
	Fit          FitOptions
	TrainTimeout time.Duration
}

// DefaultConfig returns the standard training configuration.
func DefaultConfig() Config {
	return Config{
		KMin:         DefaultKMin,
		KMax:         DefaultKMax,
		Fit:          DefaultFitOptions(),
		TrainTimeout: 10 * time.Minute,
	}
}

// TrainResult summarizes a completed training run.
type TrainResult struct {
	NClusters       int     `json:"n_clusters"`
	SilhouetteScore float64 `json:"silhouette_score"`
	Inertia         float64 `json:"inertia"`
	Generation      string  `json:"generation"`
}

// Prediction is the segment assigned to a single customer.
type Prediction struct {
	ClusterID   int     `json:"cluster"`
	ClusterName string  `json:"cluster_name"`
	Confidence  float64 `json:"confidence"`
}

// ClusterStats aggregates the training records assigned to one cluster.
type ClusterStats struct {
	ClusterID            int     `json:"cluster_id"`
	ClusterName          string  `json:"cluster_name"`
	Size                 int     `json:"size"`
	AvgAge               float64 `json:"avg_age"`
	AvgIncome            float64 `json:"avg_income"`
	AvgSpendingScore     float64 `json:"avg_spending_score"`
	AvgPurchaseFrequency float64 `json:"avg_purchase_frequency"`
}

// Statistics is the per-cluster breakdown of the training dataset.
type Statistics struct {
	TotalCustomers int            `json:"total_customers"`
	NClusters      int            `json:"n_clusters"`
	Clusters       []ClusterStats `json:"clusters"`
}

// Manager owns the fitted scaler and model and serializes their lifecycle.
type Manager struct {
	cfg    Config
	source DatasetSource
	store  Persister
	logger zerolog.Logger

	trainMu sync.Mutex

	mu         sync.RWMutex
	state      State
	scaler     *Scaler
	model      *Model
	generation string
	trainedAt  time.Time
	dataset    *Dataset
	features   *mat.Dense
}

// NewManager creates a manager in the Uninitialized state.
func NewManager(cfg Config, source DatasetSource, store Persister, logger zerolog.Logger) (*Manager, error) {
	if source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if cfg.KMin < 2 {
		cfg.KMin = DefaultKMin
	}
	if cfg.KMax < cfg.KMin {
		return nil, fmt.Errorf("k_max %d is below k_min %d", cfg.KMax, cfg.KMin)
	}
	cfg.Fit = cfg.Fit.withDefaults()

	return &Manager{
		cfg:    cfg,
		source: source,
		store:  store,
		logger: logger.With().Str("component", "segment").Logger(),
	}, nil
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Generation returns the id of the active model pair, or "" before any train or load.
func (m *Manager) Generation() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// TrainedAt returns when the active model was fit.
func (m *Manager) TrainedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trainedAt
}

// Ready reports whether predictions can be served.
func (m *Manager) Ready() bool {
	return m.State() != StateUninitialized
}

// Train fits a new model on the current dataset and persists it. When k is
// nil the cluster count is chosen by silhouette score. A run started while
// another is active fails with ErrTrainingInProgress.
func (m *Manager) Train(ctx context.Context, k *int) (TrainResult, error) {
	if !m.trainMu.TryLock() {
		metrics.TrainingRunsTotal.WithLabelValues("rejected").Inc()
		return TrainResult{}, ErrTrainingInProgress
	}
	defer m.trainMu.Unlock()

	if m.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.TrainTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := m.train(ctx, k)
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("failure").Inc()
		m.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("training failed")
		return res, err
	}

	metrics.TrainingRunsTotal.WithLabelValues("success").Inc()
	metrics.ModelClusters.Set(float64(res.NClusters))
	metrics.ModelSilhouette.Set(res.SilhouetteScore)
	m.logger.Info().
		Int("n_clusters", res.NClusters).
		Float64("silhouette", res.SilhouetteScore).
		Float64("inertia", res.Inertia).
		Str("generation", res.Generation).
		Dur("duration", time.Since(start)).
		Msg("training completed")
	return res, nil
}

func (m *Manager) train(ctx context.Context, k *int) (TrainResult, error) {
	ds, err := m.source.Load(ctx)
	if err != nil {
		return TrainResult{}, fmt.Errorf("load dataset: %w", err)
	}
	x, scaler, err := Prepare(ds)
	if err != nil {
		return TrainResult{}, fmt.Errorf("prepare features: %w", err)
	}

	model, err := m.fitModel(ctx, x, ds.Len(), k)
	if err != nil {
		return TrainResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return TrainResult{}, fmt.Errorf("training aborted: %w", err)
	}

	art := &Artifacts{
		Generation: uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		Scaler:     *scaler,
		Model:      *model,
	}
	res := TrainResult{
		NClusters:       model.K,
		SilhouetteScore: model.Silhouette,
		Inertia:         model.Inertia,
		Generation:      art.Generation,
	}

	m.mu.Lock()
	m.install(art, &ds, x, StateTrained)
	m.mu.Unlock()

	if err := m.store.Save(ctx, art); err != nil {
		return res, fmt.Errorf("persist model: %w", err)
	}

	m.mu.Lock()
	if m.generation == art.Generation {
		m.state = StatePersisted
	}
	m.mu.Unlock()
	return res, nil
}

func (m *Manager) fitModel(ctx context.Context, x *mat.Dense, n int, k *int) (*Model, error) {
	if k == nil {
		best, sweep, err := SelectK(ctx, x, m.cfg.KMin, m.cfg.KMax, m.cfg.Fit)
		if err != nil {
			return nil, fmt.Errorf("select cluster count: %w", err)
		}
		m.logger.Debug().Int("optimal_k", best).Int("candidates", len(sweep)).Msg("cluster count selected")
		for _, km := range sweep {
			if km.K == best {
				return km.model, nil
			}
		}
		return nil, fmt.Errorf("%w: selected k=%d missing from sweep", ErrInsufficientData, best)
	}

	if *k < 2 {
		return nil, fmt.Errorf("%w: n_clusters must be at least 2, got %d", ErrInvalidInput, *k)
	}
	if *k > n-1 {
		return nil, fmt.Errorf("%w: n_clusters=%d needs at least %d samples, have %d", ErrInsufficientData, *k, *k+1, n)
	}
	model, labels, err := Fit(x, *k, m.cfg.Fit)
	if err != nil {
		return nil, fmt.Errorf("fit k=%d: %w", *k, err)
	}
	score, err := Silhouette(x, labels, *k)
	if err != nil {
		return nil, fmt.Errorf("silhouette k=%d: %w", *k, err)
	}
	model.Silhouette = score
	return model, nil
}

// install swaps in a new model pair. Callers hold m.mu.
func (m *Manager) install(art *Artifacts, ds *Dataset, x *mat.Dense, state State) {
	scaler := art.Scaler
	model := art.Model
	m.scaler = &scaler
	m.model = &model
	m.generation = art.Generation
	m.trainedAt = art.TrainedAt
	m.dataset = ds
	m.features = x
	m.state = state
}

// Load restores the persisted model pair and the dataset used for
// statistics. Any missing or mismatched artifact yields an error wrapping
// ErrModelNotReady so the caller can decide to train instead.
//
// Load holds the training mutex for the whole read-and-install, so it waits
// for a running Train and a Train started meanwhile is rejected. The pair it
// installs is always the most recently persisted one.
func (m *Manager) Load(ctx context.Context) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) error {
	art, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelNotReady, err)
	}
	if art.Scaler.Samples == 0 || len(art.Model.Centroids) == 0 {
		return fmt.Errorf("%w: persisted artifacts are empty", ErrModelNotReady)
	}

	ds, err := m.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	x, err := art.Scaler.TransformDataset(ds)
	if err != nil {
		return fmt.Errorf("transform dataset: %w", err)
	}

	m.mu.Lock()
	m.install(art, &ds, x, StateLoaded)
	m.mu.Unlock()

	metrics.ModelClusters.Set(float64(art.Model.K))
	metrics.ModelSilhouette.Set(art.Model.Silhouette)
	m.logger.Info().
		Int("n_clusters", art.Model.K).
		Str("generation", art.Generation).
		Time("trained_at", art.TrainedAt).
		Msg("model loaded")
	return nil
}

// EnsureReady loads the persisted model if nothing is in memory yet. When a
// Train is running it waits for it and keeps the model it produced.
func (m *Manager) EnsureReady(ctx context.Context) error {
	if m.Ready() {
		return nil
	}
	m.trainMu.Lock()
	defer m.trainMu.Unlock()
	if m.Ready() {
		return nil
	}
	return m.load(ctx)
}

// Predict assigns a customer to a segment.
func (m *Manager) Predict(_ context.Context, r Record) (Prediction, error) {
	if err := ValidateRecord(r); err != nil {
		return Prediction{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == StateUninitialized || m.model == nil || m.scaler == nil {
		return Prediction{}, ErrModelNotReady
	}

	v, err := m.scaler.Transform(r)
	if err != nil {
		return Prediction{}, err
	}
	a, err := m.model.Assign(v)
	if err != nil {
		return Prediction{}, err
	}

	p := Prediction{
		ClusterID:   a.ClusterID,
		ClusterName: Label(a.ClusterID),
		Confidence:  Confidence(a.Distances, a.ClusterID),
	}
	metrics.PredictionsTotal.WithLabelValues(p.ClusterName).Inc()
	return p, nil
}

// Statistics reassigns every training record and aggregates per cluster.
func (m *Manager) Statistics(_ context.Context) (Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statistics()
}

// GenerationStatistics returns Statistics together with the generation of
// the model that produced them, read under one lock so a concurrent train
// swap cannot pair one generation with the other's numbers.
func (m *Manager) GenerationStatistics(_ context.Context) (string, Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, err := m.statistics()
	return m.generation, stats, err
}

// statistics requires m.mu held.
func (m *Manager) statistics() (Statistics, error) {
	if m.model == nil || m.dataset == nil || m.features == nil {
		return Statistics{}, ErrModelNotReady
	}

	k := m.model.K
	type acc struct {
		size                        int
		age, income, spending, freq float64
	}
	sums := make([]acc, k)
	n, _ := m.features.Dims()
	for i := 0; i < n; i++ {
		a, err := m.model.Assign(m.features.RawRowView(i))
		if err != nil {
			return Statistics{}, err
		}
		r := m.dataset.Records[i]
		s := &sums[a.ClusterID]
		s.size++
		s.age += float64(r.Age)
		s.income += r.AnnualIncome
		s.spending += float64(r.SpendingScore)
		s.freq += float64(r.PurchaseFrequency)
	}

	out := Statistics{
		TotalCustomers: n,
		NClusters:      k,
		Clusters:       make([]ClusterStats, k),
	}
	for c, s := range sums {
		cs := ClusterStats{ClusterID: c, ClusterName: Label(c), Size: s.size}
		if s.size > 0 {
			size := float64(s.size)
			cs.AvgAge = s.age / size
			cs.AvgIncome = s.income / size
			cs.AvgSpendingScore = s.spending / size
			cs.AvgPurchaseFrequency = s.freq / size
		}
		out.Clusters[c] = cs
	}
	return out, nil
}

// ElbowData sweeps the full k range for diagnostics. It prepares and caches
// features on first use and never replaces the active scaler or model.
func (m *Manager) ElbowData(ctx context.Context) (ElbowData, error) {
	x, err := m.elbowFeatures(ctx)
	if err != nil {
		return ElbowData{}, err
	}
	best, sweep, err := SelectK(ctx, x, m.cfg.KMin, m.cfg.KMax, m.cfg.Fit)
	if err != nil {
		return ElbowData{}, err
	}
	return NewElbowData(best, sweep), nil
}

func (m *Manager) elbowFeatures(ctx context.Context) (*mat.Dense, error) {
	m.mu.RLock()
	x := m.features
	m.mu.RUnlock()
	if x != nil {
		return x, nil
	}

	ds, err := m.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	x, _, err = Prepare(ds)
	if err != nil {
		return nil, fmt.Errorf("prepare features: %w", err)
	}

	m.mu.Lock()
	if m.features == nil && m.model == nil {
		m.features = x
		m.dataset = &ds
	}
	m.mu.Unlock()
	return x, nil
}
