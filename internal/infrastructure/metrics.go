package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"batchline/internal/dataprocessing"
	"batchline/internal/dbf"
)

// IngestMetrics records pipeline runs. It implements dataprocessing.Observer.
type IngestMetrics struct {
	runs     metric.Int64Counter
	failures metric.Int64Counter
	rows     metric.Int64Counter
	skipped  metric.Int64Counter
	records  metric.Int64Counter
	duration metric.Float64Histogram
}

var _ dataprocessing.Observer = (*IngestMetrics)(nil)

// NewIngestMetrics creates the ingestion instruments on meter
func NewIngestMetrics(meter metric.Meter) (*IngestMetrics, error) {
	runs, err := meter.Int64Counter(
		"ingest_runs_total",
		metric.WithDescription("Total number of file ingestions"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"ingest_failures_total",
		metric.WithDescription("Total number of ingestions aborted by an error"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"ingest_rows_total",
		metric.WithDescription("Total number of rows decoded"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"ingest_rows_skipped_total",
		metric.WithDescription("Rows dropped as deleted, without batch id or without equipment"),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"ingest_batch_records_total",
		metric.WithDescription("Total number of consolidated batch records"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"ingest_duration_seconds",
		metric.WithDescription("File ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &IngestMetrics{
		runs:     runs,
		failures: failures,
		rows:     rows,
		skipped:  skipped,
		records:  records,
		duration: duration,
	}, nil
}

// ObserveIngest implements dataprocessing.Observer
func (m *IngestMetrics) ObserveIngest(ctx context.Context, format string, stats dataprocessing.IngestStats, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("format", format))
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("format", format),
			attribute.String("reason", failureReason(err)),
		))
		return
	}

	m.rows.Add(ctx, int64(stats.RowsDecoded+stats.RowsDeleted), attrs)
	m.skipped.Add(ctx, int64(stats.Skipped()), attrs)
	m.records.Add(ctx, int64(stats.Records), attrs)
}

func failureReason(err error) string {
	var decodeErr *dbf.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return string(decodeErr.Kind)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "other"
	}
}

// HTTPMetrics records request counts and latencies
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instruments on meter
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{requests: requests, duration: duration, active: active}, nil
}

// Start marks a request in flight and returns the function that records it
func (m *HTTPMetrics) Start(ctx context.Context) func(route, method string, status int) {
	started := time.Now()
	m.active.Add(ctx, 1)
	return func(route, method string, status int) {
		m.active.Add(ctx, -1)
		attrs := metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("method", method),
			attribute.Int("status", status),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
	}
}
