package domain

import (
	"time"
)

// TimeInterval is a wall-clock span used for cycle-time deduplication
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Minutes returns the interval length in minutes
func (i TimeInterval) Minutes() float64 {
	return float64(i.End.Sub(i.Start).Milliseconds()) / 60000
}

// DegradationAlert flags a step whose duration trends upward across batches
type DegradationAlert struct {
	EquipmentGroup  string  `json:"equipment_group"`
	StepName        string  `json:"step_name"`
	Slope           float64 `json:"slope"`
	RecentAverage   float64 `json:"recent_average"`
	PercentIncrease float64 `json:"percent_increase"`
	Observations    int     `json:"observations"`
}

// CapabilityResult holds process-capability indices for a sample. Cp and Cpk
// are nil when the sample or the specification limits are degenerate.
type CapabilityResult struct {
	SampleSize int      `json:"sample_size"`
	Mean       float64  `json:"mean"`
	StdDev     float64  `json:"std_dev"`
	LSL        float64  `json:"lsl"`
	USL        float64  `json:"usl"`
	Cp         *float64 `json:"cp"`
	Cpk        *float64 `json:"cpk"`
}

// ControlPoint is one observation annotated against the control limits
type ControlPoint struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	Anomalous bool    `json:"anomalous"`
}

// ControlChart holds ±3σ individuals-chart statistics
type ControlChart struct {
	Mean         float64        `json:"mean"`
	StdDev       float64        `json:"std_dev"`
	UCL          float64        `json:"ucl"`
	LCL          float64        `json:"lcl"`
	Points       []ControlPoint `json:"points"`
	AnomalyCount int            `json:"anomaly_count"`
}
