package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"batchline/pkg/contracts/domain"
)

// DefaultGapAlertMinutes is the idle gap above which a record gets an alert
const DefaultGapAlertMinutes = 15.0

// TimestampFallback decides the record timestamp when the first event of a
// group has no start time.
type TimestampFallback string

const (
	// FallbackNow stamps the record with the consolidation time
	FallbackNow TimestampFallback = "now"
	// FallbackZero stamps the record with the Unix epoch
	FallbackZero TimestampFallback = "zero"
)

// ConsolidatorOptions configures batch consolidation
type ConsolidatorOptions struct {
	GapAlertMinutes   float64
	TimestampFallback TimestampFallback
	// Now is the clock used by FallbackNow. Defaults to time.Now.
	Now func() time.Time
}

// Consolidator folds process events into batch records
type Consolidator struct {
	gapAlert float64
	fallback TimestampFallback
	now      func() time.Time
}

// NewConsolidator creates a consolidator, filling unset options with defaults
func NewConsolidator(opts ConsolidatorOptions) *Consolidator {
	c := &Consolidator{
		gapAlert: opts.GapAlertMinutes,
		fallback: opts.TimestampFallback,
		now:      opts.Now,
	}
	if c.gapAlert <= 0 {
		c.gapAlert = DefaultGapAlertMinutes
	}
	if c.fallback == "" {
		c.fallback = FallbackNow
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Consolidate groups events by (batch, equipment group) and builds one
// record per group. Records come out in order of first appearance.
func (c *Consolidator) Consolidate(events []domain.ProcessEvent) []domain.BatchRecord {
	groups := make(map[domain.GroupKey][]domain.ProcessEvent)
	var order []domain.GroupKey
	for _, ev := range events {
		k := ev.Key()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], ev)
	}

	records := make([]domain.BatchRecord, 0, len(order))
	for _, k := range order {
		records = append(records, c.fold(k, groups[k]))
	}
	return records
}

// fold builds the record of one group. Events without a start sort as the
// Unix epoch, ahead of every dated event; ties keep input order.
func (c *Consolidator) fold(key domain.GroupKey, group []domain.ProcessEvent) domain.BatchRecord {
	events := make([]domain.ProcessEvent, len(group))
	copy(events, group)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartUnix() < events[j].StartUnix()
	})

	rec := domain.BatchRecord{
		BatchID:        key.BatchID,
		EquipmentGroup: key.EquipmentGroup,
		Steps:          make([]domain.Step, 0, len(events)),
		Materials:      []domain.Material{},
		Parameters:     []domain.ParameterReading{},
		Alerts:         []string{},
	}

	var realTotal, expectedTotal, idleTotal, maxGap float64
	materials := newMaterialAccumulator()
	waits := 0

	first := events[0]
	lastEnd := first.End
	if lastEnd == nil {
		lastEnd = first.Start
	}

	for i, ev := range events {
		realTotal += ev.ActualDurationMin
		expectedTotal += ev.ExpectedDurationMin

		if i > 0 && ev.Start != nil && lastEnd != nil && ev.Start.After(*lastEnd) {
			gap := minutesBetween(*lastEnd, *ev.Start)
			waits++
			rec.Steps = append(rec.Steps, domain.Step{
				StepName:    domain.WaitStepPrefix + strconv.Itoa(waits),
				DurationMin: round2(gap),
				StartTime:   timePtr(*lastEnd),
				EndTime:     timePtr(*ev.Start),
				IsWait:      true,
			})
			idleTotal += gap
			if gap > maxGap {
				maxGap = gap
			}
			if gap > c.gapAlert {
				rec.Alerts = append(rec.Alerts,
					fmt.Sprintf("Idle gap of %.1f min before step %q", gap, ev.StepName))
			}
		}

		rec.Steps = append(rec.Steps, domain.Step{
			StepName:            ev.StepName,
			StepNumber:          ev.StepNumber,
			DurationMin:         round2(ev.ActualDurationMin),
			ExpectedDurationMin: round2(ev.ExpectedDurationMin),
			StartTime:           ev.Start,
			EndTime:             ev.End,
		})

		materials.add(ev.Materials)
		for _, p := range ev.Parameters {
			rec.Parameters = append(rec.Parameters, domain.ParameterReading{
				Parameter: p,
				StepName:  ev.StepName,
				Timestamp: ev.Start,
			})
		}
		if rec.ProductName == "" {
			rec.ProductName = ev.ProductName
		}

		if ev.End != nil && (lastEnd == nil || ev.End.After(*lastEnd)) {
			lastEnd = ev.End
		}
	}

	rec.RealTotalMin = round2(realTotal)
	rec.ExpectedTotalMin = round2(expectedTotal)
	rec.DeltaTotalMin = round2(realTotal - expectedTotal)
	rec.IdleTotalMin = round2(idleTotal)
	rec.MaxGapMin = round2(maxGap)
	rec.Materials = materials.list()
	if rec.ProductName == "" {
		rec.ProductName = domain.UnknownProduct
	}

	if first.Start != nil {
		rec.Timestamp = *first.Start
	} else {
		rec.Timestamp = c.fallbackTime()
		rec.TimestampEstimated = true
	}

	return rec
}

func (c *Consolidator) fallbackTime() time.Time {
	if c.fallback == FallbackZero {
		return time.Unix(0, 0).UTC()
	}
	return c.now()
}

// materialAccumulator sums quantities per (name, unit), keeping first-seen order
type materialAccumulator struct {
	index map[[2]string]int
	items []domain.Material
}

func newMaterialAccumulator() *materialAccumulator {
	return &materialAccumulator{index: make(map[[2]string]int)}
}

func (a *materialAccumulator) add(ms []domain.Material) {
	for _, m := range ms {
		k := [2]string{m.Name, m.Unit}
		if i, ok := a.index[k]; ok {
			a.items[i].ActualQty += m.ActualQty
			a.items[i].ExpectedQty += m.ExpectedQty
			continue
		}
		a.index[k] = len(a.items)
		a.items = append(a.items, m)
	}
}

func (a *materialAccumulator) list() []domain.Material {
	out := make([]domain.Material, len(a.items))
	copy(out, a.items)
	return out
}

func minutesBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / 60000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func timePtr(t time.Time) *time.Time {
	return &t
}
