// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package segment implements the customer clustering pipeline.
//
// # Architecture
//
// The pipeline is a sequential composition of small, deterministic stages:
//
//   - Feature preparation: selects Age, Annual_Income, Spending_Score and
//     Purchase_Frequency (in that order) and standardizes them with a Scaler
//     fit once per training cycle.
//   - Cluster count selection: fits K-Means for every k in [KMin, KMax] and
//     picks the k with the highest silhouette score.
//   - Clustering engine: k-means++ initialization followed by Lloyd
//     iterations, restarted NInit times with a fixed seed.
//   - Labeling: positional segment names and a relative confidence score.
//
// The Manager owns the fitted Scaler and Model, persists them as a matched
// pair and serves predictions and per-segment statistics.
//
// # Determinism
//
// Every fit for a given k draws from its own RNG stream derived from the
// configured seed, so identical inputs always produce identical centroids,
// whether the fit runs alone or as part of a concurrent k sweep.
//
// # Thread Safety
//
// The Manager is safe for concurrent use. Training runs are serialized by a
// dedicated mutex and rejected with ErrTrainingInProgress while one is
// active. Predictions and statistics take a shared lock on the model state;
// the swap to a freshly trained or loaded model takes the exclusive lock.
//
// # Confidence
//
// Confidence is 1 - d_nearest/d_farthest rounded to two decimals, always on
// the [0,1] scale. It compares distances to centroids and is not a
// calibrated probability.
package segment
