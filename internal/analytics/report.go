package analytics

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"batchline/pkg/contracts/domain"
)

// ErrNoObservations is returned when a selection matches no samples
var ErrNoObservations = errors.New("no observations for selection")

// ReportRequest selects the sample of a report. Parameter takes precedence
// over StepName. Capability is computed only when both limits are set.
type ReportRequest struct {
	EquipmentGroup string
	StepName       string
	Parameter      string
	LSL            *float64
	USL            *float64
	Degradation    DegradationOptions
}

// Report bundles the three analyses for one selection
type Report struct {
	EquipmentGroup string                    `json:"equipment_group,omitempty"`
	StepName       string                    `json:"step_name,omitempty"`
	Parameter      string                    `json:"parameter,omitempty"`
	Samples        []float64                 `json:"samples"`
	Degradation    []domain.DegradationAlert `json:"degradation"`
	Capability     *domain.CapabilityResult  `json:"capability,omitempty"`
	ControlChart   domain.ControlChart       `json:"control_chart"`
}

// Sample resolves the series a request selects
func (r ReportRequest) Sample(records []domain.BatchRecord) []float64 {
	if r.Parameter != "" {
		return ParameterValues(records, r.EquipmentGroup, r.Parameter)
	}
	return StepDurations(records, r.EquipmentGroup, r.StepName)
}

// BuildReport runs degradation detection, capability and the control chart
// concurrently. Degradation detection is limited to the selected equipment
// group when one is given.
func BuildReport(ctx context.Context, records []domain.BatchRecord, req ReportRequest) (*Report, error) {
	samples := req.Sample(records)
	if len(samples) == 0 {
		return nil, ErrNoObservations
	}

	rep := &Report{
		EquipmentGroup: req.EquipmentGroup,
		StepName:       req.StepName,
		Parameter:      req.Parameter,
		Samples:        samples,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts := req.Degradation
		opts.EquipmentGroup = req.EquipmentGroup
		rep.Degradation = DetectDegradation(records, opts)
		return nil
	})

	if req.LSL != nil && req.USL != nil {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := Capability(samples, *req.LSL, *req.USL)
			rep.Capability = &res
			return nil
		})
	}

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.ControlChart = ControlChart(samples)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}
