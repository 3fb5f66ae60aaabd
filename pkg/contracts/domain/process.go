package domain

import (
	"time"
)

// UnassignedEquipment is the canonical group name for rows without a usable
// equipment reference. Events carrying it are never emitted.
const UnassignedEquipment = "UNASSIGNED"

// UnknownProduct is the product label used when a batch carries no product name.
const UnknownProduct = "Unknown"

// ProcessEvent is one decoded log line after domain mapping
type ProcessEvent struct {
	BatchID             string      `json:"batch_id"`
	EquipmentGroup      string      `json:"equipment_group"`
	StepName            string      `json:"step_name"`
	StepNumber          *int        `json:"step_number,omitempty"`
	ProductName         string      `json:"product_name"`
	Start               *time.Time  `json:"start,omitempty"`
	End                 *time.Time  `json:"end,omitempty"`
	StartHour           int         `json:"start_hour"`
	ExpectedDurationMin float64     `json:"expected_duration_min"`
	ActualDurationMin   float64     `json:"actual_duration_min"`
	Materials           []Material  `json:"materials,omitempty"`
	Parameters          []Parameter `json:"parameters,omitempty"`
}

// Material is a consumed quantity reported by one slot of an event
type Material struct {
	Name        string  `json:"name"`
	ActualQty   float64 `json:"actual_qty"`
	ExpectedQty float64 `json:"expected_qty"`
	Unit        string  `json:"unit"`
}

// Parameter is a process measurement reported by one slot of an event
type Parameter struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit"`
	DFMCode     string  `json:"dfm_code"`
}

// StartUnix returns the event start in milliseconds, treating a missing start
// as the Unix epoch. Consolidation sorts on this value.
func (e ProcessEvent) StartUnix() int64 {
	if e.Start == nil {
		return 0
	}
	return e.Start.UnixMilli()
}

// GroupKey identifies the (batch, equipment group) pair an event belongs to
type GroupKey struct {
	BatchID        string `json:"batch_id"`
	EquipmentGroup string `json:"equipment_group"`
}

// Key returns the grouping key of the event
func (e ProcessEvent) Key() GroupKey {
	return GroupKey{BatchID: e.BatchID, EquipmentGroup: e.EquipmentGroup}
}
