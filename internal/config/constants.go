package config

import "time"

// Application constants
const (
	AppName = "batchline"

	// EnvPrefix namespaces every environment variable: BATCHLINE_SERVER_PORT
	EnvPrefix = "BATCHLINE"
	// ConfigFileEnv names a YAML file to load instead of searching for one
	ConfigFileEnv = "BATCHLINE_CONFIG"

	// Upload limits
	DefaultMaxUploadBytes = 64 << 20

	// Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/healthz"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"

	// WebSocket timings
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
	WebSocketWriteWait  = 10 * time.Second
)
