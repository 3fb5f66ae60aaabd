// Package config loads the application configuration.
//
// # Configuration Sources
//
// Values are layered, later sources winning:
//
//	1. Default()
//	2. A YAML file: $BATCHLINE_CONFIG, else config.yaml or configs/config.yaml
//	3. Environment variables
//
// # Environment Variables
//
// Variables follow BATCHLINE_<SECTION>_<FIELD>:
//
//	BATCHLINE_SERVER_PORT=8080
//	BATCHLINE_LOGGING_LEVEL=debug
//	BATCHLINE_INGEST_GAP_ALERT_MINUTES=20
//	BATCHLINE_INGEST_TIMESTAMP_FALLBACK=zero
//	BATCHLINE_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// Load rejects out-of-range ports and timeouts, unknown log levels, unknown
// timestamp fallbacks or trace exporters, and time zones that cannot be loaded.
package config
