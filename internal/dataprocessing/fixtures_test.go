package dataprocessing

import (
	"fmt"
	"time"

	"batchline/internal/dbf"
	"batchline/internal/dbf/dbftest"
	"batchline/pkg/contracts/domain"
)

var t0 = time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

func at(min float64) *time.Time {
	t := t0.Add(time.Duration(min * float64(time.Minute)))
	return &t
}

// event builds an event running from startMin to endMin minutes after t0
func event(batch, equipment, step string, startMin, endMin float64) domain.ProcessEvent {
	return domain.ProcessEvent{
		BatchID:             batch,
		EquipmentGroup:      equipment,
		StepName:            step,
		ProductName:         "Cerveza Rubia",
		Start:               at(startMin),
		End:                 at(endMin),
		ActualDurationMin:   endMin - startMin,
		ExpectedDurationMin: endMin - startMin,
	}
}

// logTable returns a builder declaring the default export columns plus two slots
func logTable() *dbftest.Builder {
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
	for i := 1; i <= 2; i++ {
		b.Field(fmt.Sprintf("NAME_DFM%d", i), 'C', 16, 0).
			Field(fmt.Sprintf("IW_DFM%d", i), 'N', 10, 2).
			Field(fmt.Sprintf("SW_DFM%d", i), 'N', 10, 2).
			Field(fmt.Sprintf("DIM_DFM%d", i), 'C', 6, 0)
	}
	return b
}

// logRecord lays out one row for logTable. Times are HH:MM on 2024-03-15.
func logRecord(batch, equipment, step, stepNo string, sw, iw int, startHM, endHM [2]int, slots ...string) []string {
	row := []string{batch, equipment, step, stepNo, "Cerveza Rubia",
		fmt.Sprint(sw), fmt.Sprint(iw),
		"24", "3", "15", fmt.Sprint(startHM[0]), fmt.Sprint(startHM[1]), "0",
		"2024", "3", "15", fmt.Sprint(endHM[0]), fmt.Sprint(endHM[1]), "0",
	}
	return append(row, slots...)
}

func row(kv ...any) dbf.RawRow {
	r := dbf.RawRow{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}
