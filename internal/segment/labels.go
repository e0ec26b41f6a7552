// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package segment

import (
	"math"
	"strconv"
)

// segmentNames is positional: id 0 is not guaranteed to be the budget segment.
var segmentNames = [...]string{
	"Budget Conscious",
	"High Value",
	"Average Spender",
	"Premium Customer",
	"Occasional Buyer",
	"Loyal Shopper",
	"Window Shopper",
	"VIP Elite",
}

// Label maps a cluster id to its display name.
func Label(id int) string {
	if id >= 0 && id < len(segmentNames) {
		return segmentNames[id]
	}
	return "Segment " + strconv.Itoa(id)
}

// Confidence compares the distance to the assigned centroid with the
// distance to the farthest one, rounded to two decimals in [0,1].
func Confidence(distances []float64, assigned int) float64 {
	if len(distances) == 0 || assigned < 0 || assigned >= len(distances) {
		return 0
	}
	dMax := distances[0]
	for _, d := range distances[1:] {
		dMax = math.Max(dMax, d)
	}
	if dMax == 0 {
		return 1
	}
	c := 1 - distances[assigned]/dMax
	return math.Round(c*100) / 100
}
