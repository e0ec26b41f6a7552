// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/segmentus/internal/charts"
	"github.com/tomtom215/segmentus/internal/models"
)

func TestGetClusterCharts(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("charts", models.RoleUser)

	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/charts/clusters", token, nil),
		http.StatusBadRequest, CodeModelNotReady)

	env.train(3)
	rec := env.do(http.MethodGet, "/api/v1/charts/clusters", token, nil)
	expectStatus(t, rec, http.StatusOK)

	var resp charts.ClusterCharts
	decodeEnvelope(t, rec, &resp)
	for name, uri := range map[string]string{"pie": resp.PieChart, "bar": resp.BarChart, "size": resp.SizeChart} {
		if !strings.HasPrefix(uri, charts.DataURIPrefix) {
			t.Errorf("%s chart is not a data URI: %.40q", name, uri)
		}
	}
}

func TestGetElbowChart(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("elbowchart", models.RoleUser)

	rec := env.do(http.MethodGet, "/api/v1/charts/elbow", token, nil)
	expectStatus(t, rec, http.StatusOK)

	var resp charts.ElbowChart
	decodeEnvelope(t, rec, &resp)
	if !strings.HasPrefix(resp.ElbowChart, charts.DataURIPrefix) {
		t.Errorf("elbow chart is not a data URI: %.40q", resp.ElbowChart)
	}
}

func TestGetChartHTML(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("htmlchart", models.RoleUser)
	env.train(3)

	for _, name := range []string{charts.NamePie, charts.NameBar, charts.NameSize, charts.NameElbow} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/charts/"+name+".html", token, nil)
			expectStatus(t, rec, http.StatusOK)
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "script-src") {
				t.Errorf("chart CSP missing script-src: %q", csp)
			}
			if !strings.Contains(rec.Body.String(), "<html") {
				t.Error("body is not an HTML document")
			}
		})
	}

	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/charts/radar.html", token, nil),
		http.StatusNotFound, CodeNotFound)
}

func TestCharts_Compressed(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser("gzipchart", models.RoleUser)
	env.train(3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/pie.html", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if !strings.Contains(string(body), "<html") {
		t.Error("decompressed body is not HTML")
	}
}

func TestCharts_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)
	expectErrorCode(t, env.do(http.MethodGet, "/api/v1/charts/clusters", "", nil),
		http.StatusUnauthorized, CodeAuthentication)
}
