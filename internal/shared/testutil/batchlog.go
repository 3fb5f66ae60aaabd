package testutil

import (
	"fmt"
	"time"

	"batchline/internal/dbf/dbftest"
)

// LogDay0 is the first production day of the synthetic logs
var LogDay0 = time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)

// BatchLogTable declares the plant export columns with one indexed slot
func BatchLogTable() *dbftest.Builder {
	b := dbftest.NewBuilder().
		Field("BATCH_ID", 'C', 12, 0).
		Field("EQUIPMENT", 'C', 20, 0).
		Field("STEP_NAME", 'C', 20, 0).
		Field("STEP_NO", 'N', 4, 0).
		Field("PRODUCT", 'C', 20, 0).
		Field("SW_DUR", 'N', 8, 0).
		Field("IW_DUR", 'N', 8, 0)
	for _, prefix := range []string{"START", "END"} {
		b.Field(prefix+"_Y", 'N', 4, 0).
			Field(prefix+"_M", 'N', 2, 0).
			Field(prefix+"_D", 'N', 2, 0).
			Field(prefix+"_H", 'N', 2, 0).
			Field(prefix+"_MI", 'N', 2, 0).
			Field(prefix+"_S", 'N', 2, 0)
	}
	return b.Field("NAME_DFM1", 'C', 16, 0).
		Field("IW_DFM1", 'N', 10, 2).
		Field("SW_DFM1", 'N', 10, 2).
		Field("DIM_DFM1", 'C', 6, 0)
}

// BatchLogRow is one step execution of the synthetic log
type BatchLogRow struct {
	Batch     string
	Equipment string
	Step      string
	StepNo    int
	Start     time.Time
	End       time.Time
	// Optional slot
	SlotName   string
	SlotActual float64
	SlotTarget float64
	SlotUnit   string
}

// Values lays the row out in BatchLogTable column order
func (r BatchLogRow) Values() []string {
	secs := fmt.Sprint(int(r.End.Sub(r.Start).Seconds()))
	row := []string{r.Batch, r.Equipment, r.Step, fmt.Sprint(r.StepNo), "Cerveza Rubia", secs, secs}
	for _, t := range []time.Time{r.Start, r.End} {
		row = append(row,
			fmt.Sprint(t.Year()), fmt.Sprint(int(t.Month())), fmt.Sprint(t.Day()),
			fmt.Sprint(t.Hour()), fmt.Sprint(t.Minute()), fmt.Sprint(t.Second()))
	}
	if r.SlotName == "" {
		return append(row, "", "", "", "")
	}
	return append(row, r.SlotName,
		fmt.Sprintf("%.2f", r.SlotActual), fmt.Sprintf("%.2f", r.SlotTarget), r.SlotUnit)
}

// FilterLineRows builds one batch per day on equipment FILTRO_01. Each batch
// runs a 30 minute "Llenado" at 06:00, then after a 10 minute pause a
// "Filtrado" lasting the given minutes that reports a temperature.
func FilterLineRows(filtradoMinutes ...int) []BatchLogRow {
	rows := make([]BatchLogRow, 0, 2*len(filtradoMinutes))
	for i, minutes := range filtradoMinutes {
		day := LogDay0.AddDate(0, 0, i)
		batch := fmt.Sprintf("B-%03d", i+1)
		fillEnd := day.Add(30 * time.Minute)
		filterStart := fillEnd.Add(10 * time.Minute)
		rows = append(rows,
			BatchLogRow{Batch: batch, Equipment: "FILTRO_01", Step: "Llenado", StepNo: 1,
				Start: day, End: fillEnd},
			BatchLogRow{Batch: batch, Equipment: "FILTRO_01", Step: "Filtrado", StepNo: 2,
				Start: filterStart, End: filterStart.Add(time.Duration(minutes) * time.Minute),
				SlotName: "Temperatura", SlotActual: 4 + 0.1*float64(i), SlotTarget: 4, SlotUnit: "°C"},
		)
	}
	return rows
}

// FilterLineLog encodes FilterLineRows as a dBase table
func FilterLineLog(filtradoMinutes ...int) []byte {
	b := BatchLogTable()
	for _, r := range FilterLineRows(filtradoMinutes...) {
		b.Record(r.Values()...)
	}
	return b.Bytes()
}
