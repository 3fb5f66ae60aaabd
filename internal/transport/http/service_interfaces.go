package http

import (
	"context"

	"batchline/internal/analytics"
	"batchline/internal/query"
	"batchline/internal/services"
	"batchline/internal/store"
	"batchline/pkg/contracts/domain"
)

// DatasetServiceInterface is what the dataset, batch and export handlers need
type DatasetServiceInterface interface {
	Ingest(ctx context.Context, name string, data []byte) (store.Summary, error)
	Current(ctx context.Context) (store.Summary, error)
	Clear(ctx context.Context)
	Records(ctx context.Context) ([]domain.BatchRecord, error)
	Batches(ctx context.Context, f query.Filter) ([]domain.BatchRecord, error)
	Batch(ctx context.Context, batchID, equipment string) (domain.BatchRecord, error)
	Cycle(ctx context.Context, batchID, equipment string) (services.CycleTime, error)
	Facets(ctx context.Context) (query.Facets, error)
}

// AnalyticsServiceInterface is what the analytics handler needs
type AnalyticsServiceInterface interface {
	Degradation(ctx context.Context, equipment string) ([]domain.DegradationAlert, error)
	Capability(ctx context.Context, sel services.Selection, values []float64, lsl, usl float64) (domain.CapabilityResult, error)
	ControlChart(ctx context.Context, sel services.Selection) (domain.ControlChart, error)
	Report(ctx context.Context, sel services.Selection, lsl, usl *float64) (*analytics.Report, error)
}

// HealthServiceInterface is what the health handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
}

var (
	_ DatasetServiceInterface   = (*services.DatasetService)(nil)
	_ AnalyticsServiceInterface = (*services.AnalyticsService)(nil)
	_ HealthServiceInterface    = (*services.HealthService)(nil)
)
