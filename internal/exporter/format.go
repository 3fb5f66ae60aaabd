package exporter

import (
	"strconv"
	"time"
)

// formatFloat drops trailing zeros: 12.50 becomes "12.5"
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatStepNumber(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
