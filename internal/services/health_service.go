package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"batchline/internal/store"
	"batchline/pkg/contracts"
)

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	build     contracts.VersionInfo
	store     *store.Store
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Build     *contracts.VersionInfo `json:"build,omitempty"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. hub may be nil.
func NewHealthService(build contracts.VersionInfo, st *store.Store, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		build:     build,
		store:     st,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck reports liveness with runtime details
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
		Build:     &hs.build,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]interface{}{
			"dataset":   hs.checkDataset(),
			"websocket": hs.checkWebSocket(),
		},
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck is ready once the service can accept uploads. An empty
// store is still ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
	}
	if hs.store == nil {
		status.Status = "not_ready"
	}
	return status
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "store not initialized"}
	}
	ds, err := hs.store.Current()
	if err != nil {
		return ServiceHealth{Status: "empty", Message: "no dataset loaded"}
	}
	return ServiceHealth{Status: "loaded", Message: ds.Source}
}

func (hs *HealthService) checkWebSocket() interface{} {
	if hs.hub == nil {
		return ServiceHealth{Status: "disabled"}
	}
	return map[string]interface{}{
		"status":  "ready",
		"clients": hs.hub.ClientCount(),
	}
}
