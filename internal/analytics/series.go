package analytics

import (
	"strings"

	"batchline/pkg/contracts/domain"
)

// StepDurations returns the durations of every logged step named step in
// chronological record order. An empty equipment matches every group.
// Step names compare case-insensitively.
func StepDurations(records []domain.BatchRecord, equipment, step string) []float64 {
	var out []float64
	for _, rec := range chronological(records) {
		if equipment != "" && rec.EquipmentGroup != equipment {
			continue
		}
		for _, s := range rec.Steps {
			if !s.IsWait && strings.EqualFold(s.StepName, step) {
				out = append(out, s.DurationMin)
			}
		}
	}
	return out
}

// ParameterValues returns every reading of the named parameter in
// chronological record order.
func ParameterValues(records []domain.BatchRecord, equipment, parameter string) []float64 {
	var out []float64
	for _, rec := range chronological(records) {
		if equipment != "" && rec.EquipmentGroup != equipment {
			continue
		}
		for _, p := range rec.Parameters {
			if strings.EqualFold(p.Name, parameter) {
				out = append(out, p.Value)
			}
		}
	}
	return out
}
