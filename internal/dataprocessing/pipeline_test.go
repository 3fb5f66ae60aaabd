package dataprocessing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/dbf"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []observation
}

type observation struct {
	format string
	stats  IngestStats
	err    error
}

func (o *recordingObserver) ObserveIngest(_ context.Context, format string, stats IngestStats, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observation{format: format, stats: stats, err: err})
}

func newTestPipeline(obs Observer) *Pipeline {
	return NewPipeline(PipelineOptions{
		Normalizer: NormalizerOptions{Location: time.UTC},
		Observer:   obs,
	})
}

func sampleTable() []byte {
	return logTable().
		Record(logRecord("B1", "Filtro 1", "Carga", "1", 1800, 1800, [2]int{6, 0}, [2]int{6, 30},
			"Agua", "500", "500", "l")...).
		Record(logRecord("B1", "Filtro 1", "Filtrado", "2", 1800, 1800, [2]int{6, 50}, [2]int{7, 20})...).
		Record(logRecord("B1", "Marmita", "Hervido", "1", 3600, 3600, [2]int{7, 0}, [2]int{8, 0})...).
		Record(logRecord("", "Filtro 1", "Huérfano", "1", 60, 60, [2]int{9, 0}, [2]int{9, 1})...).
		Deleted(logRecord("B9", "Filtro 1", "Borrado", "1", 60, 60, [2]int{9, 0}, [2]int{9, 1})...).
		Bytes()
}

func TestPipelineRunTable(t *testing.T) {
	obs := &recordingObserver{}
	res, err := newTestPipeline(obs).Run(context.Background(), Source{Name: "export.DBF", Data: sampleTable()})
	require.NoError(t, err)

	assert.Equal(t, IngestStats{
		Format:         FormatDBF,
		CodePage:       "windows-1252",
		RowsDecoded:    4,
		RowsDeleted:    1,
		DroppedNoBatch: 1,
		Events:         3,
		Records:        2,
	}, res.Stats)
	assert.Equal(t, 2, res.Stats.Skipped())

	require.Len(t, res.Records, 2)
	filter := res.Records[0]
	assert.Equal(t, "Filtro 1", filter.EquipmentGroup)
	assert.Equal(t, 1, filter.WaitCount())
	assert.Equal(t, 20.0, filter.IdleTotalMin)
	assert.Len(t, filter.Alerts, 1)
	require.Len(t, filter.Materials, 1)
	assert.Equal(t, 500.0, filter.Materials[0].ActualQty)

	assert.Equal(t, "Marmita", res.Records[1].EquipmentGroup)
	assert.Equal(t, 60.0, res.Records[1].RealTotalMin)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, "dbf", obs.calls[0].format)
	assert.NoError(t, obs.calls[0].err)
	assert.Equal(t, res.Stats, obs.calls[0].stats)
}

func TestPipelineRunWorkbook(t *testing.T) {
	data := workbook(t,
		[]any{"BATCH_ID", "EQUIPMENT", "STEP_NAME", "IW_DUR", "START_Y", "START_M", "START_D", "START_H", "START_MI"},
		[]any{"B1", "Tanque 3", "Llenado", 600, 2024, 3, 15, 6, 0},
		[]any{"B1", "Tanque 3", "Vaciado", 600, 2024, 3, 15, 6, 30},
	)

	res, err := newTestPipeline(nil).Run(context.Background(), Source{Name: "upload", Data: data})
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, res.Stats.Format)
	assert.Equal(t, 2, res.Stats.RowsDecoded)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Tanque 3", res.Records[0].EquipmentGroup)
	assert.Equal(t, 20.0, res.Records[0].RealTotalMin)
}

func TestPipelineRunDecodeError(t *testing.T) {
	data := sampleTable()
	truncated := data[:len(data)-40]

	obs := &recordingObserver{}
	res, err := newTestPipeline(obs).Run(context.Background(), Source{Name: "cut.dbf", Data: truncated})
	require.Error(t, err)
	assert.Nil(t, res)

	var decodeErr *dbf.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, dbf.KindTruncated, decodeErr.Kind)
	assert.ErrorIs(t, err, dbf.ErrTruncated)
	assert.Contains(t, err.Error(), "cut.dbf")

	require.Len(t, obs.calls, 1)
	assert.Error(t, obs.calls[0].err)
}

func TestPipelineRunUnsupportedFormat(t *testing.T) {
	_, err := newTestPipeline(nil).Run(context.Background(), Source{Name: "a.csv", Format: "csv", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(nil).Run(ctx, Source{Name: "export.dbf", Data: sampleTable()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want Format
	}{
		{"dbf extension", "LOG.DBF", []byte("PK\x03\x04"), FormatDBF},
		{"xlsx extension", "report.xlsx", nil, FormatXLSX},
		{"macro workbook", "report.XLSM", nil, FormatXLSX},
		{"zip content", "upload", []byte("PK\x03\x04rest"), FormatXLSX},
		{"binary content", "upload", []byte{0x03, 0x7c}, FormatDBF},
		{"empty", "", nil, FormatDBF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, tt.data))
		})
	}
}
