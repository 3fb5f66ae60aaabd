package analytics

import (
	"sort"

	"batchline/pkg/contracts/domain"
)

// Defaults for DegradationOptions
const (
	DefaultMinObservations    = 5
	DefaultMinPercentIncrease = 5.0
	DefaultMaxAlerts          = 6
)

// DegradationOptions tunes trend detection. Zero values select the defaults.
type DegradationOptions struct {
	MinObservations    int
	MinPercentIncrease float64
	MaxAlerts          int
	// EquipmentGroup restricts detection to one group before ranking and
	// capping. Empty spans every group.
	EquipmentGroup string
}

func (o DegradationOptions) withDefaults() DegradationOptions {
	if o.MinObservations <= 0 {
		o.MinObservations = DefaultMinObservations
	}
	if o.MinPercentIncrease <= 0 {
		o.MinPercentIncrease = DefaultMinPercentIncrease
	}
	if o.MaxAlerts <= 0 {
		o.MaxAlerts = DefaultMaxAlerts
	}
	return o
}

type stepKey struct {
	equipment string
	step      string
}

// DetectDegradation flags (equipment group, step) pairs whose duration grows
// from batch to batch. Records are read in timestamp order; wait steps are
// ignored. A pair alerts when its least-squares slope is positive and its
// recent window averages more than MinPercentIncrease above its first window.
// Alerts are sorted by percent increase, largest first, and capped at MaxAlerts.
func DetectDegradation(records []domain.BatchRecord, opts DegradationOptions) []domain.DegradationAlert {
	opts = opts.withDefaults()

	series := make(map[stepKey][]float64)
	var keys []stepKey
	for _, rec := range chronological(records) {
		if opts.EquipmentGroup != "" && rec.EquipmentGroup != opts.EquipmentGroup {
			continue
		}
		for _, s := range rec.Steps {
			if s.IsWait {
				continue
			}
			k := stepKey{equipment: rec.EquipmentGroup, step: s.StepName}
			if _, ok := series[k]; !ok {
				keys = append(keys, k)
			}
			series[k] = append(series[k], s.DurationMin)
		}
	}

	alerts := make([]domain.DegradationAlert, 0)
	for _, k := range keys {
		durations := series[k]
		n := len(durations)
		if n < opts.MinObservations {
			continue
		}

		slope := olsSlope(durations)

		// Both window sums are divided by the first window length, even when
		// the tail slice is longer.
		firstThirdEnd := max(1, n/3)
		lastThirdStart := (2 * n) / 3
		var firstSum, lastSum float64
		for _, d := range durations[:firstThirdEnd] {
			firstSum += d
		}
		for _, d := range durations[lastThirdStart:] {
			lastSum += d
		}
		firstAvg := firstSum / float64(firstThirdEnd)
		lastAvg := lastSum / float64(firstThirdEnd)

		var pct float64
		if firstAvg != 0 {
			pct = (lastAvg - firstAvg) / firstAvg * 100
		}

		if pct > opts.MinPercentIncrease && slope > 0 {
			alerts = append(alerts, domain.DegradationAlert{
				EquipmentGroup:  k.equipment,
				StepName:        k.step,
				Slope:           slope,
				RecentAverage:   lastAvg,
				PercentIncrease: pct,
				Observations:    n,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].PercentIncrease > alerts[j].PercentIncrease
	})
	if len(alerts) > opts.MaxAlerts {
		alerts = alerts[:opts.MaxAlerts]
	}
	return alerts
}

// chronological returns a copy of records sorted by timestamp, ties in input order
func chronological(records []domain.BatchRecord) []domain.BatchRecord {
	out := make([]domain.BatchRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
