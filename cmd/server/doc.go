// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

/*
Package main is the entry point for the Estatemap server.

Estatemap serves a fixed, offline-prepared dataset of residential listings:
market analytics charts, a price-range estimator and similarity-based
apartment recommendations, all over a JSON REST API.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("estatemap")
	├── DataSupervisor ("data-layer")
	│   └── Artifact watcher (optional, ARTIFACTS_WATCH=true)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Database: in-process DuckDB holding the listings table
 4. Analytics cache: TTL cache keyed by snapshot generation
 5. Reload history: DuckDB reload_events table (AUDIT_ENABLED)
 6. Catalog: loads every artifact group into an immutable snapshot
 7. HTTP Server: chi router with rate limiting, CORS and Prometheus metrics

A feature whose artifacts are missing or malformed is disabled in the
snapshot; its endpoints answer 503 ARTIFACT_UNAVAILABLE while the rest of
the API keeps serving. POST /api/v1/admin/reload or the artifact watcher
retries the load without a restart. Every load is recorded in the reload
history served by GET /api/v1/admin/reloads.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server stops accepting
connections and drains in-flight requests for HTTP_SHUTDOWN_TIMEOUT, then
the cache and database are closed.

# Example Usage

	export ARTIFACTS_DIR=/srv/estatemap/artifacts
	export LOG_FORMAT=console
	./estatemap
*/
package main
