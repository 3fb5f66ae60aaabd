package dataprocessing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"batchline/internal/dbf"
	"batchline/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "batchline.dataprocessing"

// Format identifies the input file type
type Format string

const (
	FormatAuto Format = ""
	FormatDBF  Format = "dbf"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats the pipeline cannot read
var ErrUnsupportedFormat = errors.New("unsupported input format")

var zipMagic = []byte("PK\x03\x04")

// Source is one input file held in memory
type Source struct {
	Name   string
	Format Format
	Data   []byte
}

// DetectFormat resolves FormatAuto from the file extension, then from the
// content: zip archives are workbooks, anything else a binary table.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dbf":
		return FormatDBF
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	return FormatDBF
}

// IngestStats summarizes one pipeline run
type IngestStats struct {
	Format            Format `json:"format"`
	CodePage          string `json:"code_page,omitempty"`
	RowsDecoded       int    `json:"rows_decoded"`
	RowsDeleted       int    `json:"rows_deleted"`
	DroppedNoBatch    int    `json:"dropped_no_batch"`
	DroppedUnassigned int    `json:"dropped_unassigned"`
	Events            int    `json:"events"`
	Records           int    `json:"records"`
}

// Skipped is every row that did not become an event, deleted records included
func (s IngestStats) Skipped() int {
	return s.RowsDeleted + s.DroppedNoBatch + s.DroppedUnassigned
}

// Result is the output of one pipeline run
type Result struct {
	Records []domain.BatchRecord
	Stats   IngestStats
}

// Observer receives a summary of every run. Implemented by the telemetry layer.
type Observer interface {
	ObserveIngest(ctx context.Context, format string, stats IngestStats, elapsed time.Duration, err error)
}

// Pipeline composes decoding, normalization and consolidation
type Pipeline struct {
	normalizer   *EventNormalizer
	consolidator *Consolidator
	observer     Observer
	logger       *slog.Logger
	tracer       trace.Tracer
}

// PipelineOptions configures a pipeline
type PipelineOptions struct {
	Normalizer   NormalizerOptions
	Consolidator ConsolidatorOptions
	Observer     Observer
	Logger       *slog.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer:   NewEventNormalizer(opts.Normalizer),
		consolidator: NewConsolidator(opts.Consolidator),
		observer:     opts.Observer,
		logger:       logger.With(slog.String("component", "pipeline")),
		tracer:       otel.Tracer(TracerName),
	}
}

// Run ingests one file. A decode failure aborts the run and is returned
// wrapped; errors.As still reaches the *dbf.DecodeError. Malformed rows are
// skipped and counted instead.
func (p *Pipeline) Run(ctx context.Context, src Source) (res *Result, err error) {
	started := time.Now()
	format := src.Format
	if format == FormatAuto {
		format = DetectFormat(src.Name, src.Data)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("source.name", src.Name),
			attribute.String("source.format", string(format)),
			attribute.Int("source.bytes", len(src.Data)),
		))
	defer span.End()

	stats := IngestStats{Format: format}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if p.observer != nil {
			p.observer.ObserveIngest(ctx, string(format), stats, time.Since(started), err)
		}
	}()

	rows, err := p.decode(ctx, src, format, &stats)
	if err != nil {
		p.logger.ErrorContext(ctx, "decode failed",
			slog.String("source", src.Name),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, nspan := p.tracer.Start(ctx, "pipeline.normalize")
	events, nstats := p.normalizer.Normalize(rows)
	nspan.SetAttributes(attribute.Int("events", nstats.Events), attribute.Int("skipped", nstats.Skipped()))
	nspan.End()

	stats.DroppedNoBatch = nstats.DroppedNoBatch
	stats.DroppedUnassigned = nstats.DroppedUnassigned
	stats.Events = nstats.Events
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, cspan := p.tracer.Start(ctx, "pipeline.consolidate")
	records := p.consolidator.Consolidate(events)
	cspan.SetAttributes(attribute.Int("records", len(records)))
	cspan.End()

	stats.Records = len(records)
	span.SetAttributes(attribute.Int("records", stats.Records))

	p.logger.InfoContext(ctx, "ingestion complete",
		slog.String("source", src.Name),
		slog.String("format", string(format)),
		slog.Int("rows", stats.RowsDecoded),
		slog.Int("skipped", stats.Skipped()),
		slog.Int("events", stats.Events),
		slog.Int("records", stats.Records),
		slog.Duration("elapsed", time.Since(started)))

	return &Result{Records: records, Stats: stats}, nil
}

func (p *Pipeline) decode(ctx context.Context, src Source, format Format, stats *IngestStats) ([]dbf.RawRow, error) {
	_, span := p.tracer.Start(ctx, "pipeline.decode")
	defer span.End()

	switch format {
	case FormatDBF:
		res, err := dbf.DecodeWithInfo(src.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", src.Name, err)
		}
		stats.CodePage = res.CodePage
		stats.RowsDecoded = len(res.Rows)
		stats.RowsDeleted = res.Deleted
		span.SetAttributes(attribute.Int("rows", len(res.Rows)), attribute.Int("deleted", res.Deleted))
		return res.Rows, nil
	case FormatXLSX:
		rows, err := ParseWorkbook(bytes.NewReader(src.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", src.Name, err)
		}
		stats.RowsDecoded = len(rows)
		span.SetAttributes(attribute.Int("rows", len(rows)))
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
