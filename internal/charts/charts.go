// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

// Package charts renders cluster statistics and the elbow sweep as
// self-contained interactive HTML documents using go-echarts.
package charts

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tomtom215/segmentus/internal/segment"
)

// Chart names accepted by Render.
const (
	NamePie   = "pie"
	NameBar   = "bar"
	NameSize  = "size"
	NameElbow = "elbow"
)

// DataURIPrefix precedes the base64 payload of every embedded chart.
const DataURIPrefix = "data:text/html;base64,"

// ErrUnknownChart is returned for a chart name Render does not know.
var ErrUnknownChart = errors.New("unknown chart")

// renderer is satisfied by every go-echarts chart type.
type renderer interface {
	Render(w io.Writer) error
}

// ClusterCharts is the payload of the clusters chart endpoint.
type ClusterCharts struct {
	PieChart  string `json:"pie_chart"`
	BarChart  string `json:"bar_chart"`
	SizeChart string `json:"size_chart"`
}

// ElbowChart is the payload of the elbow chart endpoint.
type ElbowChart struct {
	ElbowChart string `json:"elbow_chart"`
}

func boolPtr(b bool) *bool { return &b }

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "900px",
		Height:    "500px",
	})
}

func clusterNames(stats segment.Statistics) []string {
	names := make([]string, len(stats.Clusters))
	for i, c := range stats.Clusters {
		names[i] = c.ClusterName
	}
	return names
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Pie shows how customers are distributed over the segments.
func Pie(stats segment.Statistics) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts("Customer Segment Distribution"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Customer Segment Distribution",
			Subtitle: fmt.Sprintf("%d customers", stats.TotalCustomers),
		}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Orient: "vertical", Left: "left", Top: "middle"}),
	)

	items := make([]opts.PieData, 0, len(stats.Clusters))
	for _, c := range stats.Clusters {
		items = append(items, opts.PieData{Name: c.ClusterName, Value: c.Size})
	}
	pie.AddSeries("segments", items).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: boolPtr(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "70%"}}),
	)
	return pie
}

// Averages is a grouped bar chart of the per-segment feature means.
// Income is plotted in thousands so all four series share one axis.
func Averages(stats segment.Statistics) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Segment Characteristics"),
		charts.WithTitleOpts(opts.Title{Title: "Segment Characteristics"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 30}}),
	)

	n := len(stats.Clusters)
	age := make([]opts.BarData, n)
	income := make([]opts.BarData, n)
	spending := make([]opts.BarData, n)
	frequency := make([]opts.BarData, n)
	for i, c := range stats.Clusters {
		age[i] = opts.BarData{Value: round1(c.AvgAge)}
		income[i] = opts.BarData{Value: round3(c.AvgIncome / 1000)}
		spending[i] = opts.BarData{Value: round1(c.AvgSpendingScore)}
		frequency[i] = opts.BarData{Value: round1(c.AvgPurchaseFrequency)}
	}

	bar.SetXAxis(clusterNames(stats)).
		AddSeries("Avg Age", age).
		AddSeries("Avg Income (k)", income).
		AddSeries("Avg Spending Score", spending).
		AddSeries("Avg Purchase Frequency", frequency)
	return bar
}

// Sizes is a horizontal bar chart of customer counts per segment.
func Sizes(stats segment.Statistics) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Customers per Segment"),
		charts.WithTitleOpts(opts.Title{Title: "Customers per Segment"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true)}),
	)

	sizes := make([]opts.BarData, len(stats.Clusters))
	for i, c := range stats.Clusters {
		sizes[i] = opts.BarData{Value: c.Size}
	}
	bar.SetXAxis(clusterNames(stats)).
		AddSeries("Customers", sizes).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: boolPtr(true), Position: "right"}))
	bar.XYReversal()
	return bar
}

// Elbow plots inertia and silhouette against k, with the selected k marked.
func Elbow(e segment.ElbowData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("Optimal Cluster Count"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Elbow Method and Silhouette Score",
			Subtitle: fmt.Sprintf("optimal k = %d", e.OptimalK),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "k"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Inertia"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Silhouette", Min: 0, Max: 1})

	ks := make([]string, len(e.KRange))
	for i, k := range e.KRange {
		ks[i] = strconv.Itoa(k)
	}
	inertias := make([]opts.LineData, len(e.Inertias))
	for i, v := range e.Inertias {
		inertias[i] = opts.LineData{Value: round1(v)}
	}
	silhouettes := make([]opts.LineData, len(e.SilhouetteScores))
	for i, v := range e.SilhouetteScores {
		silhouettes[i] = opts.LineData{Value: round3(v)}
	}

	line.SetXAxis(ks).
		AddSeries("Inertia", inertias,
			charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
				Name:  "optimal k",
				XAxis: strconv.Itoa(e.OptimalK),
			}),
		).
		AddSeries("Silhouette", silhouettes,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
		)
	return line
}

// HTML renders a chart to a complete HTML document.
func HTML(c renderer) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps an HTML document so it can be embedded in an iframe src.
func DataURI(html []byte) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString(html)
}

func dataURI(c renderer) (string, error) {
	html, err := HTML(c)
	if err != nil {
		return "", err
	}
	return DataURI(html), nil
}

// RenderClusters renders the pie, averages and sizes charts as data URIs.
func RenderClusters(stats segment.Statistics) (*ClusterCharts, error) {
	pie, err := dataURI(Pie(stats))
	if err != nil {
		return nil, err
	}
	bar, err := dataURI(Averages(stats))
	if err != nil {
		return nil, err
	}
	size, err := dataURI(Sizes(stats))
	if err != nil {
		return nil, err
	}
	return &ClusterCharts{PieChart: pie, BarChart: bar, SizeChart: size}, nil
}

// RenderElbow renders the elbow chart as a data URI.
func RenderElbow(e segment.ElbowData) (*ElbowChart, error) {
	uri, err := dataURI(Elbow(e))
	if err != nil {
		return nil, err
	}
	return &ElbowChart{ElbowChart: uri}, nil
}

// IsClusterChart reports whether name is built from cluster statistics.
func IsClusterChart(name string) bool {
	return name == NamePie || name == NameBar || name == NameSize
}

// RenderNamed renders one cluster chart by name as raw HTML.
func RenderNamed(name string, stats segment.Statistics) ([]byte, error) {
	switch name {
	case NamePie:
		return HTML(Pie(stats))
	case NameBar:
		return HTML(Averages(stats))
	case NameSize:
		return HTML(Sizes(stats))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}
