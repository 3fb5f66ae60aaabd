// Package app wires the batch analysis service together and manages its
// lifecycle.
//
// New builds every component from a configuration and a logger:
//
//	1. OpenTelemetry tracing and the Prometheus metrics registry
//	2. the ingestion pipeline, observed by the ingest metrics
//	3. the dataset store and the WebSocket hub subscribed to it
//	4. the dataset, analytics and health services
//	5. the chi router with middleware and every HTTP route
//
// Run serves until SIGINT or SIGTERM and then shuts down gracefully: the
// HTTP server drains, the hub disconnects its clients and telemetry is
// flushed. Errors are returned to the caller; the package never exits the
// process.
package app
