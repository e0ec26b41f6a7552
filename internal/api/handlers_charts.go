// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/segmentus/internal/cache"
	"github.com/tomtom215/segmentus/internal/charts"
	"github.com/tomtom215/segmentus/internal/logging"
)

// chartCSP lets the rendered documents load the echarts bundle and run
// their inline init script. It replaces the strict API policy for HTML only.
const chartCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://go-echarts.github.io; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; " +
	"frame-ancestors 'self'; " +
	"base-uri 'self'"

// GetClusterCharts returns the pie, averages and size charts as
// base64 HTML data URIs for iframe embedding.
//
// Method: GET
// Path: /api/v1/charts/clusters
func (h *Handler) GetClusterCharts(w http.ResponseWriter, r *http.Request) {
	stats, meta, err := h.clusterStatistics(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	v, hit, err := h.clusterCache.GetOrCompute(cache.GenerateKey("charts", meta.Generation), func() (interface{}, error) {
		return charts.RenderClusters(stats)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to render charts", err)
		return
	}
	meta.Cached = meta.Cached && hit
	respondSuccess(w, http.StatusOK, v, meta)
}

// GetElbowChart returns the elbow chart as a data URI.
//
// Method: GET
// Path: /api/v1/charts/elbow
func (h *Handler) GetElbowChart(w http.ResponseWriter, r *http.Request) {
	data, meta, err := h.elbowData(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	chart, err := charts.RenderElbow(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to render chart", err)
		return
	}
	respondSuccess(w, http.StatusOK, chart, meta)
}

// GetChartHTML serves one chart as a standalone HTML document.
//
// Method: GET
// Path: /api/v1/charts/{name}.html where name is pie, bar, size or elbow
func (h *Handler) GetChartHTML(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var (
		html []byte
		err  error
	)
	switch {
	case name == charts.NameElbow:
		data, _, derr := h.elbowData(r.Context())
		if derr != nil {
			respondDomainError(w, derr)
			return
		}
		html, err = charts.HTML(charts.Elbow(data))
	case charts.IsClusterChart(name):
		stats, _, serr := h.clusterStatistics(r.Context())
		if serr != nil {
			respondDomainError(w, serr)
			return
		}
		html, err = charts.RenderNamed(name, stats)
	default:
		respondError(w, http.StatusNotFound, CodeNotFound, "Unknown chart", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", chartCSP)
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write chart HTML")
	}
}
