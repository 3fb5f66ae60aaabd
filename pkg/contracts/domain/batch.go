package domain

import (
	"time"
)

// WaitStepPrefix prefixes the names of synthesized idle steps
const WaitStepPrefix = "Wait "

// Step is one entry of a batch timeline. Wait steps carry a synthetic name,
// no step number and a zero expected duration.
type Step struct {
	StepName            string     `json:"step_name"`
	StepNumber          *int       `json:"step_number,omitempty"`
	DurationMin         float64    `json:"duration_min"`
	ExpectedDurationMin float64    `json:"expected_duration_min"`
	StartTime           *time.Time `json:"start_time,omitempty"`
	EndTime             *time.Time `json:"end_time,omitempty"`
	IsWait              bool       `json:"is_wait"`
}

// ParameterReading is a parameter together with the step that reported it
type ParameterReading struct {
	Parameter
	StepName  string     `json:"step_name"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// BatchRecord is the consolidated timeline of one (batch, equipment group)
// pair. Records are built once per ingestion and never mutated afterwards.
type BatchRecord struct {
	BatchID            string             `json:"batch_id"`
	EquipmentGroup     string             `json:"equipment_group"`
	ProductName        string             `json:"product_name"`
	Timestamp          time.Time          `json:"timestamp"`
	TimestampEstimated bool               `json:"timestamp_estimated"`
	Steps              []Step             `json:"steps"`
	RealTotalMin       float64            `json:"real_total_min"`
	ExpectedTotalMin   float64            `json:"expected_total_min"`
	DeltaTotalMin      float64            `json:"delta_total_min"`
	IdleTotalMin       float64            `json:"idle_total_min"`
	MaxGapMin          float64            `json:"max_gap_min"`
	Materials          []Material         `json:"materials"`
	Parameters         []ParameterReading `json:"parameters"`
	Alerts             []string           `json:"alerts"`
}

// Key returns the (batch, equipment group) key of the record
func (r BatchRecord) Key() GroupKey {
	return GroupKey{BatchID: r.BatchID, EquipmentGroup: r.EquipmentGroup}
}

// RealSteps returns the steps that came from the log, skipping wait steps
func (r BatchRecord) RealSteps() []Step {
	steps := make([]Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		if !s.IsWait {
			steps = append(steps, s)
		}
	}
	return steps
}

// WaitCount returns the number of synthesized wait steps
func (r BatchRecord) WaitCount() int {
	n := 0
	for _, s := range r.Steps {
		if s.IsWait {
			n++
		}
	}
	return n
}
