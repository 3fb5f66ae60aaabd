package dataprocessing

import (
	"math"
	"time"

	"batchline/internal/dbf"
	"batchline/internal/textnorm"
	"batchline/pkg/contracts/domain"
)

// NormalizerOptions configures row to event mapping
type NormalizerOptions struct {
	Columns Columns
	// Location interprets the timestamp sub-fields. Defaults to time.Local.
	Location *time.Location
}

// NormalizeStats counts what happened to the input rows
type NormalizeStats struct {
	Rows              int `json:"rows"`
	Events            int `json:"events"`
	DroppedNoBatch    int `json:"dropped_no_batch"`
	DroppedUnassigned int `json:"dropped_unassigned"`
}

// Skipped returns the number of rows that produced no event
func (s NormalizeStats) Skipped() int {
	return s.DroppedNoBatch + s.DroppedUnassigned
}

// EventNormalizer maps decoded rows to process events
type EventNormalizer struct {
	columns  Columns
	location *time.Location
}

// NewEventNormalizer creates a normalizer. Zero options use DefaultColumns
// and the local time zone.
func NewEventNormalizer(opts NormalizerOptions) *EventNormalizer {
	cols := opts.Columns
	if cols.BatchID == "" {
		cols = DefaultColumns()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &EventNormalizer{columns: cols, location: loc}
}

// Normalize maps every row to an event. Rows without a batch id or whose
// equipment resolves to the unassigned group are dropped and counted.
func (n *EventNormalizer) Normalize(rows []dbf.RawRow) ([]domain.ProcessEvent, NormalizeStats) {
	stats := NormalizeStats{Rows: len(rows)}
	events := make([]domain.ProcessEvent, 0, len(rows))

	for _, row := range rows {
		ev, ok := n.event(row)
		if !ok {
			if ev.BatchID == "" {
				stats.DroppedNoBatch++
			} else {
				stats.DroppedUnassigned++
			}
			continue
		}
		events = append(events, ev)
	}

	stats.Events = len(events)
	return events, stats
}

func (n *EventNormalizer) event(row dbf.RawRow) (domain.ProcessEvent, bool) {
	c := n.columns
	ev := domain.ProcessEvent{
		BatchID: text(row, c.BatchID),
	}
	if ev.BatchID == "" {
		return ev, false
	}

	ev.EquipmentGroup = textnorm.CanonicalizeEquipmentGroup(text(row, c.Equipment))
	if ev.EquipmentGroup == domain.UnassignedEquipment {
		return ev, false
	}

	ev.StepName = text(row, c.StepName)
	if v, ok := number(row, c.StepNumber); ok {
		step := int(math.Round(v))
		ev.StepNumber = &step
	}
	ev.ProductName = text(row, c.Product)
	ev.ExpectedDurationMin = numberOrZero(row, c.ExpectedSeconds) / 60
	ev.ActualDurationMin = numberOrZero(row, c.ActualSeconds) / 60
	ev.Start = n.timestamp(row, c.Start)
	ev.End = n.timestamp(row, c.End)
	ev.StartHour = int(numberOrZero(row, c.Start[3]))
	ev.Materials, ev.Parameters = readSlots(row)

	return ev, true
}

// timestamp rebuilds a time from year, month, day, hour, minute and second
// fields. Two digit years are read as 20xx. A missing date part yields nil.
func (n *EventNormalizer) timestamp(row dbf.RawRow, fields [6]string) *time.Time {
	var parts [6]int
	for i, f := range fields {
		v, ok := number(row, f)
		if !ok {
			if i < 3 {
				return nil
			}
			continue
		}
		parts[i] = int(v)
	}
	if parts[0] <= 0 || parts[1] <= 0 || parts[2] <= 0 {
		return nil
	}
	if parts[0] < 100 {
		parts[0] += 2000
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, n.location)
	return &t
}

// readSlots splits the indexed slots into materials and parameters
func readSlots(row dbf.RawRow) ([]domain.Material, []domain.Parameter) {
	var materials []domain.Material
	var parameters []domain.Parameter

	for _, slot := range slotColumns {
		name := text(row, slot.Name)
		if name == "" {
			continue
		}
		unit := text(row, slot.Unit)
		unitKey := textnorm.Normalize(unit)
		actual := numberOrZero(row, slot.Actual)
		expected := numberOrZero(row, slot.Expected)

		switch {
		case MaterialUnits[unitKey]:
			materials = append(materials, domain.Material{
				Name:        name,
				ActualQty:   actual,
				ExpectedQty: expected,
				Unit:        unit,
			})
		case ParameterUnits[unitKey], actual > 0:
			parameters = append(parameters, domain.Parameter{
				Name:        name,
				Value:       actual,
				TargetValue: expected,
				Unit:        unit,
				DFMCode:     slot.DFMCode(),
			})
		}
	}

	return materials, parameters
}
