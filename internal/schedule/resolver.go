// Package schedule resolves (street, bin type) pairs to upcoming pickup
// dates, from a static per-street calendar or an anchor+interval fallback
// rule with public-holiday correction.
package schedule

import (
	"sort"
	"time"

	"tonnenheld/internal/models"
)

const dateLayout = "2006-01-02"

// LookaheadDates is the default query depth when projecting a subscription
// forward.
const LookaheadDates = 12

// Rule is the algorithmic fallback for streets without a static calendar:
// a confirmed anchor date advanced by a fixed interval of 7, 14 or 28 days,
// holiday-shifted per candidate.
type Rule struct {
	IntervalDays int
	Anchor       time.Time
}

// Config assembles a Resolver. Zero-value fields fall back to defaults;
// Now is injectable for deterministic tests.
type Config struct {
	Tables   map[string]map[models.BinType][]string
	Rules    map[string]map[models.BinType]Rule
	Holidays map[string]struct{}
	Now      func() time.Time
}

// Resolver answers pickup-date queries. It is pure and safe to call
// concurrently: all state is immutable after construction.
type Resolver struct {
	tables   map[string]map[models.BinType][]time.Time
	rules    map[string]map[models.BinType]Rule
	holidays map[string]struct{}
	now      func() time.Time
}

// New builds a Resolver from the given config. Table entries that fail to
// parse as YYYY-MM-DD are dropped silently; the calendar is operator data,
// not user input.
func New(cfg Config) *Resolver {
	r := &Resolver{
		tables:   make(map[string]map[models.BinType][]time.Time),
		rules:    cfg.Rules,
		holidays: cfg.Holidays,
		now:      cfg.Now,
	}
	if r.holidays == nil {
		r.holidays = make(map[string]struct{})
	}
	if r.now == nil {
		r.now = time.Now
	}

	for street, byBin := range cfg.Tables {
		parsed := make(map[models.BinType][]time.Time, len(byBin))
		for bin, raw := range byBin {
			dates := make([]time.Time, 0, len(raw))
			for _, s := range raw {
				d, err := time.Parse(dateLayout, s)
				if err != nil {
					continue
				}
				dates = append(dates, d)
			}
			sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
			parsed[bin] = dates
		}
		r.tables[street] = parsed
	}
	return r
}

// Default returns a Resolver over the built-in street calendar and the NRW
// holidays surrounding the current season.
func Default() *Resolver {
	year := time.Now().Year()
	return New(Config{
		Tables:   staticSchedules,
		Holidays: HolidaySet(year-1, year, year+1, year+2),
	})
}

// Streets lists every street the resolver can answer for, sorted.
func (r *Resolver) Streets() []string {
	seen := make(map[string]struct{}, len(r.tables))
	for s := range r.tables {
		seen[s] = struct{}{}
	}
	for s := range r.rules {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NextDates returns up to count future pickup dates for the street and bin
// type, ascending, all on or after today. Unknown combinations yield an
// empty slice, never an error.
func (r *Resolver) NextDates(street string, bin models.BinType, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	today := models.Day(r.now())

	if static, ok := r.tables[street][bin]; ok {
		dates := make([]time.Time, 0, count)
		for _, d := range static {
			if d.Before(today) {
				continue
			}
			dates = append(dates, d)
			if len(dates) == count {
				break
			}
		}
		return dates
	}

	rule, ok := r.rules[street][bin]
	if !ok || rule.IntervalDays <= 0 {
		return nil
	}

	current := models.Day(rule.Anchor)
	for current.Before(today) {
		current = current.AddDate(0, 0, rule.IntervalDays)
	}

	dates := make([]time.Time, 0, count)
	for len(dates) < count {
		real := r.applyHolidayShift(current)
		if !real.Before(today) {
			dates = append(dates, real)
		}
		current = current.AddDate(0, 0, rule.IntervalDays)
	}
	return dates
}

// DatesInRange returns every pickup date within [start, end] inclusive,
// ascending. For static streets this is exactly the subset of the table;
// no dates are synthesized outside it.
func (r *Resolver) DatesInRange(street string, bin models.BinType, start, end time.Time) []time.Time {
	start = models.Day(start)
	end = models.Day(end)
	if end.Before(start) {
		return nil
	}

	if static, ok := r.tables[street][bin]; ok {
		var dates []time.Time
		for _, d := range static {
			if d.Before(start) || d.After(end) {
				continue
			}
			dates = append(dates, d)
		}
		return dates
	}

	rule, ok := r.rules[street][bin]
	if !ok || rule.IntervalDays <= 0 {
		return nil
	}

	// Walk the interval grid from just before the window so the first
	// in-range candidate is not skipped by a holiday shift.
	current := models.Day(rule.Anchor)
	safeStart := start.AddDate(0, 0, -30)
	if current.Before(safeStart) {
		days := int(safeStart.Sub(current).Hours() / 24)
		current = current.AddDate(0, 0, (days/rule.IntervalDays)*rule.IntervalDays)
	} else {
		for current.After(safeStart) {
			current = current.AddDate(0, 0, -rule.IntervalDays)
		}
	}

	var dates []time.Time
	for !current.After(end) {
		real := r.applyHolidayShift(current)
		if !real.Before(start) && !real.After(end) {
			dates = append(dates, real)
		}
		current = current.AddDate(0, 0, rule.IntervalDays)
	}
	return dates
}

// applyHolidayShift models "collection slips by one day per holiday since
// the start of the week": count holidays in [Monday-of-week, d] and shift
// d forward by that count; if the shifted date lands on a holiday itself,
// shift one more day.
func (r *Resolver) applyHolidayShift(d time.Time) time.Time {
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := d.AddDate(0, 0, -(weekday - 1))

	shift := 0
	for cursor := monday; !cursor.After(d); cursor = cursor.AddDate(0, 0, 1) {
		if _, ok := r.holidays[cursor.Format(dateLayout)]; ok {
			shift++
		}
	}

	shifted := d.AddDate(0, 0, shift)
	if _, ok := r.holidays[shifted.Format(dateLayout)]; ok {
		shifted = shifted.AddDate(0, 0, 1)
	}
	return shifted
}
