// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package main is the entry point for the Segmentus server.

Segmentus groups customers into behavioral segments with K-Means over four
standardized features (age, annual income, spending score, purchase
frequency), chooses the cluster count by silhouette score, and serves
predictions, cluster statistics and charts over a REST API.

# Application Architecture

	RootSupervisor ("segmentus")
	├── ModelSupervisor ("model-layer")
	│   └── Model lifecycle (load or train at startup, optional retrain)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (model_trained / model_loaded events)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB for users, profiles and prediction history
 4. Bootstrap admin account
 5. Artifact storage: local files or S3-compatible object storage
 6. Segment manager and dataset source
 7. Authentication (JWT, token revocation) and Casbin authorization
 8. Supervisor tree and HTTP server

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>       # required in production
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

	DATASET_PATH=./data/customers.csv
	MODEL_K_MIN=2
	MODEL_K_MAX=10
	MODEL_RETRAIN_INTERVAL=0     # e.g. 24h

	ARTIFACT_BACKEND=file        # file or s3
	ARTIFACT_DIR=./models
	ARTIFACT_S3_BUCKET=segmentus-models
	ARTIFACT_S3_ENDPOINT=http://minio:9000

# Signal Handling

On SIGINT or SIGTERM the root context is canceled:

 1. The HTTP server stops accepting connections and drains requests
 2. WebSocket clients are closed
 3. A running retrain is abandoned
 4. The revocation store and database are closed
 5. Services that failed to stop are reported
*/
package main
