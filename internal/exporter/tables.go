package exporter

import (
	"strconv"
	"strings"

	"batchline/internal/dataprocessing"
	"batchline/pkg/contracts/domain"
)

// Table is a header plus rows of cell text
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

var (
	batchHeaders = []string{
		"batch_id", "equipment_group", "product", "timestamp", "timestamp_estimated",
		"steps", "waits", "real_total_min", "expected_total_min", "delta_total_min",
		"idle_total_min", "max_gap_min", "true_cycle_min", "alerts",
	}
	stepHeaders = []string{
		"batch_id", "equipment_group", "step_number", "step_name", "is_wait",
		"start", "end", "duration_min", "expected_duration_min",
	}
	materialHeaders = []string{
		"batch_id", "equipment_group", "material", "unit", "actual_qty", "expected_qty",
	}
	parameterHeaders = []string{
		"batch_id", "equipment_group", "step_name", "parameter", "dfm_code", "unit",
		"value", "target_value", "timestamp",
	}
)

// BatchTable has one summary row per record. Alerts are joined with "; ".
func BatchTable(records []domain.BatchRecord) Table {
	t := Table{Name: "Batches", Headers: batchHeaders, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.BatchID,
			r.EquipmentGroup,
			r.ProductName,
			formatTime(&r.Timestamp),
			formatBool(r.TimestampEstimated),
			strconv.Itoa(len(r.RealSteps())),
			strconv.Itoa(r.WaitCount()),
			formatFloat(r.RealTotalMin),
			formatFloat(r.ExpectedTotalMin),
			formatFloat(r.DeltaTotalMin),
			formatFloat(r.IdleTotalMin),
			formatFloat(r.MaxGapMin),
			formatFloat(dataprocessing.TrueCycleMinutes(r)),
			strings.Join(r.Alerts, "; "),
		})
	}
	return t
}

// StepTable has one row per step in timeline order
func StepTable(records []domain.BatchRecord) Table {
	t := Table{Name: "Steps", Headers: stepHeaders}
	for _, r := range records {
		for _, s := range r.Steps {
			t.Rows = append(t.Rows, []string{
				r.BatchID,
				r.EquipmentGroup,
				formatStepNumber(s.StepNumber),
				s.StepName,
				formatBool(s.IsWait),
				formatTime(s.StartTime),
				formatTime(s.EndTime),
				formatFloat(s.DurationMin),
				formatFloat(s.ExpectedDurationMin),
			})
		}
	}
	return t
}

// MaterialTable lists the summed material consumption of every record
func MaterialTable(records []domain.BatchRecord) Table {
	t := Table{Name: "Materials", Headers: materialHeaders}
	for _, r := range records {
		for _, m := range r.Materials {
			t.Rows = append(t.Rows, []string{
				r.BatchID, r.EquipmentGroup, m.Name, m.Unit,
				formatFloat(m.ActualQty), formatFloat(m.ExpectedQty),
			})
		}
	}
	return t
}

// ParameterTable lists every parameter reading
func ParameterTable(records []domain.BatchRecord) Table {
	t := Table{Name: "Parameters", Headers: parameterHeaders}
	for _, r := range records {
		for _, p := range r.Parameters {
			t.Rows = append(t.Rows, []string{
				r.BatchID, r.EquipmentGroup, p.StepName, p.Name, p.DFMCode, p.Unit,
				formatFloat(p.Value), formatFloat(p.TargetValue), formatTime(p.Timestamp),
			})
		}
	}
	return t
}
