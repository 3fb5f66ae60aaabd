package dbf

import (
	"encoding/binary"
	"strings"
)

// Header byte offsets
const (
	offRecordCount  = 4
	offHeaderLength = 8
	offRecordLength = 10
	offCodePage     = 29
	offDescriptors  = 32

	headerSize     = 32
	descriptorSize = 32

	// Offsets relative to the start of a field descriptor
	descName     = 0
	descNameLen  = 11
	descType     = 11
	descLength   = 16
	descDecimals = 17

	headerTerminator = 0x0D
	deletedFlag      = 0x2A
)

// FieldType is the single-character type code of a field descriptor
type FieldType byte

const (
	FieldCharacter FieldType = 'C'
	FieldNumeric   FieldType = 'N'
	FieldFloat     FieldType = 'F'
	FieldDate      FieldType = 'D'
	FieldLogical   FieldType = 'L'
)

// String returns the type code as text
func (t FieldType) String() string {
	return string(rune(t))
}

// Field describes one column of the table
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Length   int       `json:"length"`
	Decimals int       `json:"decimals"`
	// Offset is the position of the field inside a record, past the deletion flag.
	Offset int `json:"offset"`
}

// Header is the parsed table header
type Header struct {
	RecordCount  int
	HeaderLength int
	RecordLength int
	CodePageID   byte
	Fields       []Field
}

// requiredLength is the minimum buffer size that holds every declared record
func (h Header) requiredLength() int {
	return h.HeaderLength + h.RecordLength*h.RecordCount
}

// parseHeader reads the fixed header and the field descriptors
func parseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, &DecodeError{
			Kind:    KindHeader,
			Message: "buffer shorter than fixed header",
			Start:   len(data),
			End:     headerSize,
		}
	}

	h := Header{
		RecordCount:  int(binary.LittleEndian.Uint32(data[offRecordCount:])),
		HeaderLength: int(binary.LittleEndian.Uint16(data[offHeaderLength:])),
		RecordLength: int(binary.LittleEndian.Uint16(data[offRecordLength:])),
		CodePageID:   data[offCodePage],
	}

	if h.HeaderLength <= offDescriptors {
		return Header{}, &DecodeError{
			Kind:    KindHeader,
			Message: "header length leaves no room for field descriptors",
			Start:   offHeaderLength,
			End:     offHeaderLength + 2,
		}
	}
	if h.RecordLength < 1 {
		return Header{}, &DecodeError{
			Kind:    KindHeader,
			Message: "record length must include the deletion flag",
			Start:   offRecordLength,
			End:     offRecordLength + 2,
		}
	}

	if need := h.requiredLength(); len(data) < need {
		return Header{}, &DecodeError{
			Kind:    KindTruncated,
			Message: "buffer shorter than declared records",
			Start:   len(data),
			End:     need,
		}
	}

	fields, err := parseDescriptors(data, h.HeaderLength)
	if err != nil {
		return Header{}, err
	}
	h.Fields = fields

	if n := len(fields); n > 0 && fields[n-1].Offset+fields[n-1].Length > h.RecordLength {
		return Header{}, &DecodeError{
			Kind:    KindHeader,
			Message: "field " + fields[n-1].Name + " extends past the record length",
			Start:   offRecordLength,
			End:     offRecordLength + 2,
		}
	}

	return h, nil
}

// parseDescriptors walks the descriptor list until the terminator byte. Every
// descriptor and the terminator after it must lie inside headerLength.
func parseDescriptors(data []byte, headerLength int) ([]Field, error) {
	var fields []Field
	recordOffset := 1

	for off := offDescriptors; ; off += descriptorSize {
		if off >= len(data) {
			return nil, unterminated(off, headerLength)
		}
		if data[off] == headerTerminator {
			return fields, nil
		}
		if off+descriptorSize >= headerLength || off+descriptorSize > len(data) {
			return nil, unterminated(off, headerLength)
		}

		desc := data[off : off+descriptorSize]
		f := Field{
			Name:     strings.TrimSpace(strings.TrimRight(string(desc[descName:descName+descNameLen]), "\x00")),
			Type:     FieldType(desc[descType]),
			Length:   int(desc[descLength]),
			Decimals: int(desc[descDecimals]),
			Offset:   recordOffset,
		}
		recordOffset += f.Length
		fields = append(fields, f)
	}
}

func unterminated(off, headerLength int) *DecodeError {
	return &DecodeError{
		Kind:    KindUnterminatedHeader,
		Message: "field descriptor list has no terminator",
		Start:   off,
		End:     headerLength,
	}
}
