package services

import (
	"context"
	"log/slog"

	"batchline/internal/analytics"
	"batchline/pkg/contracts/domain"
)

// RecordSource provides the records analyses run on
type RecordSource interface {
	Records(ctx context.Context) ([]domain.BatchRecord, error)
}

// Selection picks a series out of the records. Parameter takes precedence
// over StepName; an empty EquipmentGroup spans every group.
type Selection struct {
	EquipmentGroup string
	StepName       string
	Parameter      string
}

func (s Selection) empty() bool {
	return s.StepName == "" && s.Parameter == ""
}

func (s Selection) request() analytics.ReportRequest {
	return analytics.ReportRequest{
		EquipmentGroup: s.EquipmentGroup,
		StepName:       s.StepName,
		Parameter:      s.Parameter,
	}
}

// AnalyticsService runs the statistics engine over the current dataset
type AnalyticsService struct {
	source   RecordSource
	defaults analytics.DegradationOptions
	logger   *slog.Logger
}

// NewAnalyticsService creates an analytics service. defaults tune degradation
// detection when a request does not override them.
func NewAnalyticsService(source RecordSource, defaults analytics.DegradationOptions, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		source:   source,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "analytics_service")),
	}
}

// Degradation returns the degradation alerts, limited to one equipment group
// when equipment is set
func (s *AnalyticsService) Degradation(ctx context.Context, equipment string) ([]domain.DegradationAlert, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, err
	}

	opts := s.defaults
	opts.EquipmentGroup = equipment
	out := analytics.DetectDegradation(records, opts)

	s.logger.DebugContext(ctx, "degradation computed",
		slog.Int("records", len(records)),
		slog.Int("alerts", len(out)))
	return out, nil
}

// Capability computes Cp/Cpk of values, or of the selected series when values
// is empty
func (s *AnalyticsService) Capability(ctx context.Context, sel Selection, values []float64, lsl, usl float64) (domain.CapabilityResult, error) {
	if len(values) == 0 {
		if sel.empty() {
			return domain.CapabilityResult{}, ErrNoSelection
		}
		records, err := s.source.Records(ctx)
		if err != nil {
			return domain.CapabilityResult{}, err
		}
		values = sel.request().Sample(records)
		if len(values) == 0 {
			return domain.CapabilityResult{}, analytics.ErrNoObservations
		}
	}
	return analytics.Capability(values, lsl, usl), nil
}

// ControlChart builds the individuals chart of the selected series
func (s *AnalyticsService) ControlChart(ctx context.Context, sel Selection) (domain.ControlChart, error) {
	if sel.empty() {
		return domain.ControlChart{}, ErrNoSelection
	}
	records, err := s.source.Records(ctx)
	if err != nil {
		return domain.ControlChart{}, err
	}
	values := sel.request().Sample(records)
	if len(values) == 0 {
		return domain.ControlChart{}, analytics.ErrNoObservations
	}
	return analytics.ControlChart(values), nil
}

// Report runs the three analyses for one selection concurrently
func (s *AnalyticsService) Report(ctx context.Context, sel Selection, lsl, usl *float64) (*analytics.Report, error) {
	if sel.empty() {
		return nil, ErrNoSelection
	}
	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, err
	}

	req := sel.request()
	req.LSL = lsl
	req.USL = usl
	req.Degradation = s.defaults

	rep, err := analytics.BuildReport(ctx, records, req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "analytics report built",
		slog.String("equipment_group", sel.EquipmentGroup),
		slog.String("step", sel.StepName),
		slog.String("parameter", sel.Parameter),
		slog.Int("samples", len(rep.Samples)),
		slog.Int("anomalies", rep.ControlChart.AnomalyCount))
	return rep, nil
}
