// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/cache"
	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
	"github.com/tomtom215/segmentus/internal/segment"
	ws "github.com/tomtom215/segmentus/internal/websocket"
)

const (
	historyDefaultLimit = 50
	historyMaxLimit     = 500
)

// trainResponse is the payload of POST /model/train.
type trainResponse struct {
	Message         string  `json:"message"`
	NClusters       int     `json:"n_clusters"`
	SilhouetteScore float64 `json:"silhouette_score"`
	Inertia         float64 `json:"inertia"`
	Generation      string  `json:"generation"`
}

// predictResponse is the payload of POST /model/predict.
type predictResponse struct {
	segment.Prediction
	CustomerData models.CustomerRequest `json:"customer_data"`
}

// TrainModel fits a new model on the configured dataset.
//
// Method: POST
// Path: /api/v1/model/train
// Body: optional {"n_clusters": k}; without it k is chosen by silhouette score.
//
// Training is detached from the request context so a disconnecting client
// does not abort the run; the manager bounds it with its own timeout.
// A concurrent run yields 409.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	var req models.TrainRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	res, err := h.manager.Train(context.WithoutCancel(r.Context()), req.NClusters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.ClearCache()

	triggeredBy := "anonymous"
	if claims := auth.GetClaims(r.Context()); claims != nil && claims.Username != "" {
		triggeredBy = claims.Username
	}
	if h.wsHub != nil {
		h.wsHub.BroadcastModelTrained(ws.ModelEvent{
			NClusters:       res.NClusters,
			SilhouetteScore: res.SilhouetteScore,
			Inertia:         res.Inertia,
			Generation:      res.Generation,
			TriggeredBy:     triggeredBy,
		})
	}
	logging.Ctx(r.Context()).Info().
		Str("triggered_by", triggeredBy).
		Int("n_clusters", res.NClusters).
		Str("generation", res.Generation).
		Msg("Model trained via API")

	respondSuccess(w, http.StatusOK, trainResponse{
		Message:         fmt.Sprintf("Model trained successfully with %d clusters", res.NClusters),
		NClusters:       res.NClusters,
		SilhouetteScore: res.SilhouetteScore,
		Inertia:         res.Inertia,
		Generation:      res.Generation,
	}, models.Metadata{QueryTimeMS: elapsedMS(start), Generation: res.Generation})
}

// Predict assigns a customer to a segment and records the prediction in
// the caller's history.
//
// Method: POST
// Path: /api/v1/model/predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.manager.EnsureReady(ctx); err != nil {
		respondDomainError(w, err)
		return
	}

	pred, err := h.manager.Predict(ctx, segment.Record{
		Sex:               req.Sex,
		Age:               req.Age,
		AnnualIncome:      req.AnnualIncome,
		SpendingScore:     req.SpendingScore,
		PurchaseFrequency: req.PurchaseFrequency,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// A history write failure is logged, not surfaced: the caller still
	// gets the prediction they asked for.
	if claims := auth.GetClaims(ctx); claims != nil {
		if _, err := h.db.InsertPrediction(ctx, claims.UserID, req, pred.ClusterID, pred.ClusterName, pred.Confidence); err != nil {
			logging.Ctx(ctx).Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to record prediction history")
		}
	}

	respondSuccess(w, http.StatusOK, predictResponse{
		Prediction:   pred,
		CustomerData: req,
	}, models.Metadata{Generation: h.manager.Generation()})
}

// clusterStatistics returns per-cluster statistics for the active model,
// cached per generation.
func (h *Handler) clusterStatistics(ctx context.Context) (segment.Statistics, models.Metadata, error) {
	start := time.Now()
	if err := h.manager.EnsureReady(ctx); err != nil {
		return segment.Statistics{}, models.Metadata{}, err
	}
	if gen := h.manager.Generation(); gen != "" {
		if v, ok := h.clusterCache.Get(cache.GenerateKey("statistics", gen)); ok {
			return v.(segment.Statistics), models.Metadata{QueryTimeMS: elapsedMS(start), Cached: true, Generation: gen}, nil
		}
	}

	// Generation and statistics come from one snapshot; a train that lands
	// in between must not file new numbers under the old key.
	gen, stats, err := h.manager.GenerationStatistics(ctx)
	if err != nil {
		return segment.Statistics{}, models.Metadata{}, err
	}
	h.clusterCache.Set(cache.GenerateKey("statistics", gen), stats)
	return stats, models.Metadata{
		QueryTimeMS: elapsedMS(start),
		Generation:  gen,
	}, nil
}

// GetClusters returns statistics for every cluster of the active model.
//
// Method: GET
// Path: /api/v1/model/clusters
func (h *Handler) GetClusters(w http.ResponseWriter, r *http.Request) {
	stats, meta, err := h.clusterStatistics(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, stats, meta)
}

// datasetFingerprint identifies the current training data. A file on disk
// is identified by size and mtime; a synthetic dataset by its generator
// parameters.
func (h *Handler) datasetFingerprint() string {
	ds := h.config.Dataset
	if fi, err := os.Stat(ds.Path); err == nil {
		return fmt.Sprintf("%s:%d:%d", ds.Path, fi.Size(), fi.ModTime().UnixNano())
	}
	return fmt.Sprintf("synthetic:%d:%d", ds.SyntheticRows, ds.Seed)
}

// elbowData sweeps k over the current dataset, cached per fingerprint.
func (h *Handler) elbowData(ctx context.Context) (segment.ElbowData, models.Metadata, error) {
	start := time.Now()
	v, hit, err := h.elbowCache.GetOrCompute(cache.GenerateKey("elbow", h.datasetFingerprint()), func() (interface{}, error) {
		return h.manager.ElbowData(ctx)
	})
	if err != nil {
		return segment.ElbowData{}, models.Metadata{}, err
	}
	return v.(segment.ElbowData), models.Metadata{
		QueryTimeMS: elapsedMS(start),
		Cached:      hit,
	}, nil
}

// GetElbowData returns inertia and silhouette score for each candidate k.
// It does not require a trained model.
//
// Method: GET
// Path: /api/v1/model/elbow
func (h *Handler) GetElbowData(w http.ResponseWriter, r *http.Request) {
	data, meta, err := h.elbowData(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, data, meta)
}

// GetModelInfo reports the lifecycle state of the model and, when an
// artifact store is configured, the metadata of the persisted artifacts.
//
// Method: GET
// Path: /api/v1/model/info
func (h *Handler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	info := models.ModelInfo{
		State:      h.manager.State().String(),
		Ready:      h.manager.Ready(),
		Generation: h.manager.Generation(),
		TrainedAt:  optionalTime(h.manager.TrainedAt()),
	}
	if info.Ready {
		if stats, _, err := h.clusterStatistics(r.Context()); err == nil {
			info.NClusters = stats.NClusters
		}
	}
	if h.artifacts != nil {
		meta, err := h.artifacts.Describe(r.Context())
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("No persisted artifacts to describe")
		} else {
			info.Artifact = meta
		}
	}
	respondSuccess(w, http.StatusOK, info, models.Metadata{Generation: info.Generation})
}

// GetHistory returns the caller's prediction history, newest first.
//
// Method: GET
// Path: /api/v1/history?skip=0&limit=50
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		auth.WriteAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	page, apiErr := parsePagination(r, historyDefaultLimit, historyMaxLimit)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	history, err := h.db.ListPredictionHistory(r.Context(), claims.UserID, page.Skip, page.Limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, history, models.Metadata{QueryTimeMS: elapsedMS(start)})
}
