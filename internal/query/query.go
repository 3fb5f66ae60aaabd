// Package query filters consolidated records without holding any selection
// state. Callers pass the filter on every request.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"batchline/pkg/contracts/domain"
)

// Filter selects records. Empty fields match everything; text fields compare
// case-insensitively. From and To bound the record timestamp inclusively.
type Filter struct {
	BatchID        string     `json:"batch_id,omitempty"`
	EquipmentGroup string     `json:"equipment_group,omitempty"`
	Product        string     `json:"product,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
}

// FilterFromValues reads a filter from URL query values. Dates accept
// RFC 3339 or YYYY-MM-DD; a bare date is a calendar day in loc, the zone the
// logs were recorded in, and a bare To date covers the whole day. A nil loc
// reads bare dates as UTC.
func FilterFromValues(v url.Values, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := Filter{
		BatchID:        strings.TrimSpace(v.Get("batch")),
		EquipmentGroup: strings.TrimSpace(v.Get("equipment")),
		Product:        strings.TrimSpace(v.Get("product")),
	}
	if s := v.Get("from"); s != "" {
		t, _, err := parseTime(s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from: %w", err)
		}
		f.From = &t
	}
	if s := v.Get("to"); s != "" {
		t, dateOnly, err := parseTime(s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return Filter{}, fmt.Errorf("to is before from")
	}
	return f, nil
}

func parseTime(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	return t, true, err
}

// Match reports whether rec passes the filter
func (f Filter) Match(rec domain.BatchRecord) bool {
	if f.BatchID != "" && !strings.EqualFold(rec.BatchID, f.BatchID) {
		return false
	}
	if f.EquipmentGroup != "" && !strings.EqualFold(rec.EquipmentGroup, f.EquipmentGroup) {
		return false
	}
	if f.Product != "" && !strings.EqualFold(rec.ProductName, f.Product) {
		return false
	}
	if f.From != nil && rec.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && rec.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Apply returns the matching records in their original order. The input is
// not modified.
func Apply(records []domain.BatchRecord, f Filter) []domain.BatchRecord {
	out := make([]domain.BatchRecord, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Find returns the record of one (batch, equipment group) pair
func Find(records []domain.BatchRecord, batchID, equipment string) (domain.BatchRecord, bool) {
	for _, rec := range records {
		if rec.BatchID == batchID && strings.EqualFold(rec.EquipmentGroup, equipment) {
			return rec, true
		}
	}
	return domain.BatchRecord{}, false
}

// Facets lists the distinct values a filter can take
type Facets struct {
	Batches         []string   `json:"batches"`
	EquipmentGroups []string   `json:"equipment_groups"`
	Products        []string   `json:"products"`
	Steps           []string   `json:"steps"`
	Parameters      []string   `json:"parameters"`
	From            *time.Time `json:"from,omitempty"`
	To              *time.Time `json:"to,omitempty"`
}

// BuildFacets collects sorted distinct values and the timestamp range
func BuildFacets(records []domain.BatchRecord) Facets {
	batches := newSet()
	equipment := newSet()
	products := newSet()
	steps := newSet()
	params := newSet()

	var f Facets
	for _, rec := range records {
		batches.add(rec.BatchID)
		equipment.add(rec.EquipmentGroup)
		products.add(rec.ProductName)
		for _, s := range rec.Steps {
			if !s.IsWait {
				steps.add(s.StepName)
			}
		}
		for _, p := range rec.Parameters {
			params.add(p.Name)
		}
		if rec.TimestampEstimated {
			continue
		}
		ts := rec.Timestamp
		if f.From == nil || ts.Before(*f.From) {
			f.From = &ts
		}
		if f.To == nil || ts.After(*f.To) {
			to := ts
			f.To = &to
		}
	}

	f.Batches = batches.sorted()
	f.EquipmentGroups = equipment.sorted()
	f.Products = products.sorted()
	f.Steps = steps.sorted()
	f.Parameters = params.sorted()
	return f
}

type set map[string]struct{}

func newSet() set { return make(set) }

func (s set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
