// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package supervisor runs the long-lived parts of Segmentus under a suture v4
supervisor tree.

	RootSupervisor ("segmentus")
	├── ModelSupervisor ("model-layer")
	│   └── ModelLifecycleService   load or train at startup, periodic retrain
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently, so a crashing retrain loop backs
off without taking the HTTP listener with it. Supervisor events are logged
through sutureslog into the zerolog pipeline (see logging.NewSlogLogger).

Shutdown is driven by context cancellation: cancel the context passed to
Serve and every service returns within TreeConfig.ShutdownTimeout, or is
listed by UnstoppedServiceReport.
*/
package supervisor
