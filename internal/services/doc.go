// Package services holds the application logic between the HTTP handlers
// and the ingestion, store and analytics packages.
//
// DatasetService ingests uploads through the pipeline and answers queries
// over the current dataset. AnalyticsService runs degradation, capability
// and control-chart analyses on the records it is given. HealthService
// reports liveness and readiness.
//
// Services take their collaborators and a *slog.Logger through their
// constructors and propagate context.Context on every call.
package services
