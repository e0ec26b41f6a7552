// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package services adapts Segmentus components to suture.Service.
//
// Each wrapper depends on a small interface rather than the concrete
// component, so tests drive them with fakes.
package services
