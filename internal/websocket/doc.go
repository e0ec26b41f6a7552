// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package websocket pushes model lifecycle events to connected dashboards.

A single Hub owns the set of clients. Each Client runs a read pump and a write
pump; the hub goroutine is the only writer of the client set and the only
closer of a client's send channel.

# Message Format

All messages are JSON objects:

	{"type": "model_trained", "data": {"n_clusters": 4, "silhouette_score": 0.41, ...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. The server
also sends protocol-level ping frames every pingPeriod and drops clients that
miss a pong for pongWait.

# Lifecycle

RunWithContext blocks until the context is canceled and then closes every
client, so it fits under a suture supervisor.
*/
package websocket
