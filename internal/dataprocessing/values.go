package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"batchline/internal/dbf"
)

// text reads a field as trimmed text. Numbers are formatted without a
// trailing fraction so numeric batch ids keep their printed form.
func text(row dbf.RawRow, key string) string {
	switch v := row[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// number reads a numeric field; ok is false when the field is missing or
// does not hold a finite number.
func number(row dbf.RawRow, key string) (float64, bool) {
	switch v := row[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// numberOrZero reads a numeric field, defaulting to 0
func numberOrZero(row dbf.RawRow, key string) float64 {
	v, _ := number(row, key)
	return v
}
