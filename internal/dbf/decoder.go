package dbf

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
)

// RawRow maps a field name to its decoded value: string, float64, a
// YYYY-MM-DD date string, bool, or nil when the raw text was not usable.
type RawRow map[string]any

// Result is the outcome of a successful decode
type Result struct {
	Rows     []RawRow
	Fields   []Field
	Deleted  int
	CodePage string
}

// Decode parses a table and returns its live rows in file order.
func Decode(data []byte) ([]RawRow, error) {
	res, err := DecodeWithInfo(data)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// DecodeWithInfo parses a table and also reports the field list, the number
// of deleted records and the code page used for text fields.
func DecodeWithInfo(data []byte) (*Result, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	cp := SelectCodePage(data)
	dec := cp.Encoding.NewDecoder()

	res := &Result{
		Rows:     make([]RawRow, 0, h.RecordCount),
		Fields:   h.Fields,
		CodePage: cp.Name,
	}

	for i := 0; i < h.RecordCount; i++ {
		start := h.HeaderLength + i*h.RecordLength
		record := data[start : start+h.RecordLength]
		if record[0] == deletedFlag {
			res.Deleted++
			continue
		}

		row := make(RawRow, len(h.Fields))
		for _, f := range h.Fields {
			raw := record[f.Offset : f.Offset+f.Length]
			row[f.Name] = decodeValue(f.Type, decodeText(dec, raw))
		}
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}

func decodeText(dec *encoding.Decoder, raw []byte) string {
	out, err := dec.Bytes(raw)
	if err != nil {
		out = raw
	}
	return strings.TrimFunc(string(out), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}

// decodeValue converts trimmed field text according to the declared type.
// Numeric text that is not a finite decimal number decodes to nil.
func decodeValue(t FieldType, text string) any {
	switch t {
	case FieldNumeric, FieldFloat:
		if strings.ContainsAny(text, "xX") {
			return nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case FieldDate:
		if len(text) != 8 {
			return nil
		}
		return text[0:4] + "-" + text[4:6] + "-" + text[6:8]
	case FieldLogical:
		return strings.EqualFold(text, "T") || text == "1"
	default:
		return text
	}
}
