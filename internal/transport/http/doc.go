// Package http holds the HTTP handlers of the batch analysis service.
//
// Handlers are thin: they parse the request, call a service and render the
// result with go-chi/render. Every failure goes through the shared
// apierrors.ErrorHandler so clients always receive RFC 7807 problem details.
//
// Each handler exposes Routes() returning a chi.Router that the application
// mounts under the API base path:
//
//	/api/datasets    DatasetHandler   upload, inspect and clear the dataset
//	/api/batches     BatchHandler     filtered batch listing, detail, cycle time
//	/api/facets      BatchHandler     distinct values for filter widgets
//	/api/analytics   AnalyticsHandler degradation, capability, control chart, report
//	/api/export      ExportHandler    CSV and XLSX downloads
//	/api/logs        ClientLogHandler browser log forwarding
//
// Health endpoints are plain handler funcs mounted at the root.
package http
