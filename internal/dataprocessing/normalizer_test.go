package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/dbf"
	"batchline/pkg/contracts/domain"
)

func newUTCNormalizer() *EventNormalizer {
	return NewEventNormalizer(NormalizerOptions{Location: time.UTC})
}

func TestNormalizeRow(t *testing.T) {
	r := row(
		"BATCH_ID", "L-2024-001",
		"EQUIPMENT", "FILTRO 02",
		"STEP_NAME", "Filtración",
		"STEP_NO", 3.0,
		"PRODUCT", "Cerveza Rubia",
		"SW_DUR", 1800.0,
		"IW_DUR", 2100.0,
		"START_Y", 24.0, "START_M", 3.0, "START_D", 15.0, "START_H", 6.0, "START_MI", 30.0, "START_S", 5.0,
		"END_Y", 2024.0, "END_M", 3.0, "END_D", 15.0, "END_H", 7.0, "END_MI", 5.0, "END_S", 5.0,
		"NAME_DFM1", "Malta", "IW_DFM1", 510.5, "SW_DFM1", 500.0, "DIM_DFM1", "kg",
		"NAME_DFM2", "Temperatura", "IW_DFM2", 78.2, "SW_DFM2", 78.0, "DIM_DFM2", "°C",
		"NAME_DFM3", "Contador", "IW_DFM3", 12.0, "SW_DFM3", 0.0, "DIM_DFM3", "uds",
		"NAME_DFM4", "Sin valor", "IW_DFM4", 0.0, "SW_DFM4", 5.0, "DIM_DFM4", "",
		"NAME_DFM5", "", "IW_DFM5", 9.0, "DIM_DFM5", "kg",
	)

	events, stats := newUTCNormalizer().Normalize([]dbf.RawRow{r})
	require.Len(t, events, 1)
	assert.Equal(t, NormalizeStats{Rows: 1, Events: 1}, stats)

	ev := events[0]
	assert.Equal(t, "L-2024-001", ev.BatchID)
	assert.Equal(t, "Filtro 2", ev.EquipmentGroup)
	assert.Equal(t, "Filtración", ev.StepName)
	require.NotNil(t, ev.StepNumber)
	assert.Equal(t, 3, *ev.StepNumber)
	assert.Equal(t, 30.0, ev.ExpectedDurationMin)
	assert.Equal(t, 35.0, ev.ActualDurationMin)
	assert.Equal(t, 6, ev.StartHour)

	require.NotNil(t, ev.Start)
	require.NotNil(t, ev.End)
	assert.Equal(t, time.Date(2024, 3, 15, 6, 30, 5, 0, time.UTC), *ev.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 7, 5, 5, 0, time.UTC), *ev.End)

	assert.Equal(t, []domain.Material{
		{Name: "Malta", ActualQty: 510.5, ExpectedQty: 500, Unit: "kg"},
	}, ev.Materials)
	assert.Equal(t, []domain.Parameter{
		{Name: "Temperatura", Value: 78.2, TargetValue: 78, Unit: "°C", DFMCode: "DFM2"},
		{Name: "Contador", Value: 12, TargetValue: 0, Unit: "uds", DFMCode: "DFM3"},
	}, ev.Parameters)
}

func TestNormalizeDropsRows(t *testing.T) {
	rows := []dbf.RawRow{
		row("BATCH_ID", "", "EQUIPMENT", "Filtro 1"),
		row("EQUIPMENT", "Filtro 1"),
		row("BATCH_ID", "B1", "EQUIPMENT", "   "),
		row("BATCH_ID", "B1", "EQUIPMENT", nil),
		row("BATCH_ID", "B1", "EQUIPMENT", "Marmita"),
	}

	events, stats := newUTCNormalizer().Normalize(rows)
	require.Len(t, events, 1)
	assert.Equal(t, "Marmita", events[0].EquipmentGroup)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.DroppedNoBatch)
	assert.Equal(t, 2, stats.DroppedUnassigned)
	assert.Equal(t, 4, stats.Skipped())
}

func TestNormalizeMissingValues(t *testing.T) {
	r := row(
		"BATCH_ID", 1042.0,
		"EQUIPMENT", "Reactor",
		"SW_DUR", nil,
		"IW_DUR", "abc",
		"START_Y", 2024.0, "START_M", 3.0, "START_D", nil,
		"END_Y", 2024.0, "END_M", 3.0, "END_D", 16.0,
	)

	events, _ := newUTCNormalizer().Normalize([]dbf.RawRow{r})
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "1042", ev.BatchID)
	assert.Nil(t, ev.StepNumber)
	assert.Zero(t, ev.ExpectedDurationMin)
	assert.Zero(t, ev.ActualDurationMin)
	assert.Nil(t, ev.Start, "a missing day yields no timestamp")
	require.NotNil(t, ev.End)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), *ev.End)
	assert.Zero(t, ev.StartHour)
	assert.Empty(t, ev.Materials)
	assert.Empty(t, ev.Parameters)
	assert.Equal(t, "", ev.ProductName)
}

func TestNumberRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{"float", 12.5, 12.5, true},
		{"decimal comma", " 3,5 ", 3.5, true},
		{"nan float", math.NaN(), 0, false},
		{"infinite float", math.Inf(1), 0, false},
		{"nan text", "NaN", 0, false},
		{"infinity text", "-Infinity", 0, false},
		{"garbage", "abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := number(row("IW_DUR", tt.value), "IW_DUR")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDecodedTable(t *testing.T) {
	data := logTable().
		Record(logRecord("B1", "tanque_05", "Llenado", "1", 600, 660, [2]int{6, 0}, [2]int{6, 11},
			"Agua", "1500", "1500", "l")...).
		Deleted(logRecord("B1", "tanque_05", "Borrado", "2", 60, 60, [2]int{6, 20}, [2]int{6, 21})...).
		Record(logRecord("", "tanque_05", "Sin lote", "3", 60, 60, [2]int{6, 30}, [2]int{6, 31})...).
		Bytes()

	rows, err := dbf.Decode(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	events, stats := newUTCNormalizer().Normalize(rows)
	require.Len(t, events, 1)
	assert.Equal(t, 1, stats.DroppedNoBatch)

	ev := events[0]
	assert.Equal(t, "Tanque 5", ev.EquipmentGroup)
	assert.Equal(t, 11.0, ev.ActualDurationMin)
	assert.Equal(t, 10.0, ev.ExpectedDurationMin)
	assert.Equal(t, time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC), *ev.Start)
	require.Len(t, ev.Materials, 1)
	assert.Equal(t, domain.Material{Name: "Agua", ActualQty: 1500, ExpectedQty: 1500, Unit: "l"}, ev.Materials[0])
}

func TestSlotColumns(t *testing.T) {
	require.Len(t, slotColumns, SlotCount)
	first, last := slotColumns[0], slotColumns[SlotCount-1]
	assert.Equal(t, "NAME_DFM1", first.Name)
	assert.Equal(t, "DIM_DFM1", first.Unit)
	assert.Equal(t, "IW_DFM24", last.Actual)
	assert.Equal(t, "SW_DFM24", last.Expected)
	assert.Equal(t, "DFM24", last.DFMCode())

	for unit := range MaterialUnits {
		assert.False(t, ParameterUnits[unit], "unit %q is both material and parameter", unit)
	}
}
