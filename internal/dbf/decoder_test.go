package dbf_test

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/dbf"
	"batchline/internal/dbf/dbftest"
)

const descriptorBytes = 32

func sampleTable() *dbftest.Builder {
	return dbftest.NewBuilder().
		Field("BATCH_ID", 'C', 10, 0).
		Field("IW_DUR", 'N', 8, 1).
		Field("PROD_DATE", 'D', 8, 0).
		Field("DONE", 'L', 1, 0).
		Record("B-100", "120.5", "20240315", "T").
		Deleted("B-101", "60", "20240316", "F").
		Record("B-102", "n/a", "2024031", "1").
		Record("Válvula", "", "", "f")
}

func TestDecodeRoundTrip(t *testing.T) {
	rows, err := dbf.Decode(sampleTable().Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 3, "deleted record must be skipped")

	assert.Equal(t, "B-100", rows[0]["BATCH_ID"])
	assert.Equal(t, 120.5, rows[0]["IW_DUR"])
	assert.Equal(t, "2024-03-15", rows[0]["PROD_DATE"])
	assert.Equal(t, true, rows[0]["DONE"])

	assert.Equal(t, "B-102", rows[1]["BATCH_ID"])
	assert.Nil(t, rows[1]["IW_DUR"], "unparseable numeric decodes to nil")
	assert.Nil(t, rows[1]["PROD_DATE"], "dates must have 8 characters")
	assert.Equal(t, true, rows[1]["DONE"])

	assert.Equal(t, "Válvula", rows[2]["BATCH_ID"])
	assert.Nil(t, rows[2]["IW_DUR"])
	assert.Equal(t, false, rows[2]["DONE"])
}

func TestDecodeNonFiniteNumbers(t *testing.T) {
	b := dbftest.NewBuilder().Field("IW_DUR", 'N', 10, 0)
	for _, v := range []string{"NaN", "Inf", "-Inf", "Infinity", "0x1p4", "42"} {
		b.Record(v)
	}

	rows, err := dbf.Decode(b.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 6)
	for _, r := range rows[:5] {
		assert.Nil(t, r["IW_DUR"])
	}
	assert.Equal(t, 42.0, rows[5]["IW_DUR"])

	_, err = json.Marshal(rows)
	assert.NoError(t, err)
}

func TestDecodeWithInfo(t *testing.T) {
	res, err := dbf.DecodeWithInfo(sampleTable().Bytes())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, "windows-1252", res.CodePage)
	require.Len(t, res.Fields, 4)

	offsets := []int{1, 11, 19, 27}
	for i, f := range res.Fields {
		assert.Equal(t, offsets[i], f.Offset, f.Name)
	}
	assert.Equal(t, dbf.FieldNumeric, res.Fields[1].Type)
	assert.Equal(t, 1, res.Fields[1].Decimals)
}

func TestDecodeTruncated(t *testing.T) {
	b := sampleTable()
	data := b.Bytes()
	cut := b.HeaderLength() + b.RecordLength()*2 + 5
	required := b.HeaderLength() + b.RecordLength()*4

	_, err := dbf.Decode(data[:cut])
	require.Error(t, err)

	var decErr *dbf.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, dbf.KindTruncated, decErr.Kind)
	assert.Equal(t, cut, decErr.Start)
	assert.Equal(t, required, decErr.End)
	assert.Equal(t, required-cut, decErr.MissingBytes())
	assert.ErrorIs(t, err, dbf.ErrTruncated)
}

func TestDecodeUnterminatedHeader(t *testing.T) {
	data := sampleTable().Bytes()
	headerLen := int(binary.LittleEndian.Uint16(data[8:]))
	data[headerLen-1] = ' '

	_, err := dbf.Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbf.ErrUnterminatedHeader)
}

func TestDecodeDescriptorCrossesHeaderLength(t *testing.T) {
	tests := []struct {
		name   string
		shrink int
	}{
		{"terminator outside header", 1},
		{"descriptor crosses header end", 2},
		{"descriptor starts at header end", descriptorBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sampleTable().Bytes()
			headerLen := int(binary.LittleEndian.Uint16(data[8:]))
			binary.LittleEndian.PutUint16(data[8:], uint16(headerLen-tt.shrink))

			_, err := dbf.Decode(data)
			require.Error(t, err)
			assert.ErrorIs(t, err, dbf.ErrUnterminatedHeader)
		})
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "shorter than fixed header",
			mutate: func(b []byte) []byte { return b[:20] },
		},
		{
			name: "header length too small",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint16(b[8:], 16)
				return b
			},
		},
		{
			name: "zero record length",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint16(b[10:], 0)
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dbf.Decode(tt.mutate(sampleTable().Bytes()))
			require.Error(t, err)
			assert.ErrorIs(t, err, dbf.ErrHeader)
		})
	}
}

func TestDecodeEmptyTable(t *testing.T) {
	data := dbftest.NewBuilder().Field("BATCH_ID", 'C', 10, 0).Bytes()
	rows, err := dbf.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSelectCodePage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"dos us", headerWithCodePage(0x01), "cp437"},
		{"dos multilingual", headerWithCodePage(0x02), "cp850"},
		{"windows ansi", headerWithCodePage(0x57), "windows-1252"},
		{"unknown id", headerWithCodePage(0xC9), "windows-1252"},
		{"short header", []byte{0x03, 0x00}, "windows-1252"},
		{"nil", nil, "windows-1252"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dbf.SelectCodePage(tt.data).Name)
		})
	}
}

func TestDecodeCodePage850(t *testing.T) {
	b := dbftest.NewBuilder().CodePage(0x02).Field("NAME", 'C', 6, 0).Record("xxxxxx")
	data := b.Bytes()
	// 0xA2 is 'ó' in code page 850 and '¢' in Windows-1252
	data[b.HeaderLength()+1] = 0xA2

	rows, err := dbf.Decode(data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "óxxxxx", rows[0]["NAME"])
}

func headerWithCodePage(id byte) []byte {
	b := make([]byte, 32)
	b[29] = id
	return b
}
