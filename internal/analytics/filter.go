// Package analytics derives the dashboard aggregates from cleaned orders.
// Every function is pure and safe to call concurrently on shared input.
package analytics

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"superstore-dashboard/internal/models"
)

type regionMode int

const (
	regionsAll regionMode = iota
	regionsNone
	regionsOnly
)

// RegionFilter selects orders by region. The zero value admits every region.
type RegionFilter struct {
	mode   regionMode
	values map[string]struct{}
}

func RegionsAll() RegionFilter {
	return RegionFilter{mode: regionsAll}
}

func RegionsNone() RegionFilter {
	return RegionFilter{mode: regionsNone}
}

// RegionsOnly admits exactly the named regions. With no names it admits
// nothing.
func RegionsOnly(regions ...string) RegionFilter {
	if len(regions) == 0 {
		return RegionsNone()
	}
	return RegionFilter{
		mode:   regionsOnly,
		values: lo.SliceToMap(regions, func(r string) (string, struct{}) { return r, struct{}{} }),
	}
}

// RegionsFromSelection applies the multi-select convention of the dashboard:
// clearing every box means "no restriction", not "nothing".
func RegionsFromSelection(selected []string) RegionFilter {
	selected = lo.Compact(selected)
	if len(selected) == 0 {
		return RegionsAll()
	}
	return RegionsOnly(selected...)
}

func (f RegionFilter) Match(region string) bool {
	switch f.mode {
	case regionsNone:
		return false
	case regionsOnly:
		_, ok := f.values[region]
		return ok
	default:
		return true
	}
}

func (f RegionFilter) IsAll() bool {
	return f.mode == regionsAll
}

// Values lists the selected regions in sorted order. It is nil unless the
// filter was built with RegionsOnly.
func (f RegionFilter) Values() []string {
	if f.mode != regionsOnly {
		return nil
	}
	out := lo.Keys(f.values)
	slices.Sort(out)
	return out
}

func (f RegionFilter) String() string {
	switch f.mode {
	case regionsNone:
		return "none"
	case regionsOnly:
		return "only"
	default:
		return "all"
	}
}

// Filter is the active dashboard selection. From and To are inclusive
// calendar days; a zero bound is open.
type Filter struct {
	From    time.Time
	To      time.Time
	Regions RegionFilter
}

func (f Filter) Match(o models.Order) bool {
	day := truncateDay(o.OrderDate)
	if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncateDay(f.To)) {
		return false
	}
	return f.Regions.Match(o.Region)
}

// Apply returns the orders matching f, in their original order.
func Apply(orders []models.Order, f Filter) []models.Order {
	return lo.Filter(orders, func(o models.Order, _ int) bool {
		return f.Match(o)
	})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncateMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
