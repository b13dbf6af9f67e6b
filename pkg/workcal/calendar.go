// Package workcal implements the horizon-free working calendar: Layer 1 of
// finitecap. A Calendar answers forward/backward time-arithmetic and
// interval-enumeration queries over a recurring weekly pattern plus dated
// exceptions, without ever materializing a bounded window.
package workcal

import (
	"iter"
	"time"
)

// Weekday indexes a day of the week the way calendar-input documents do:
// 0 = Monday, ..., 6 = Sunday. This differs from the stdlib's
// time.Weekday, where Sunday is 0.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf converts a time.Weekday to finitecap's Monday-first Weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ExceptionEntry overrides a single calendar date. When IsWorking is false
// and HasRange is false, it clears the entire date of rule-derived periods.
// When IsWorking is true, it contributes (Start, End) as an additional
// working period for that date.
type ExceptionEntry struct {
	IsWorking  bool
	Start, End TimeOfDay
	HasRange   bool
}

// Interval is a concrete half-open [Start, End) datetime range. Both ends
// are naive (UTC-represented) datetimes produced by a Calendar.
type Interval struct {
	Start, End time.Time
}

// Calendar is an immutable, horizon-free model of recurring weekly working
// periods plus dated exceptions. It is safe to share read-only across
// goroutines and across every Bitmap built from it; its lifetime must
// outlive every such Bitmap.
type Calendar struct {
	patternID  string
	rules      map[Weekday][]Period
	exceptions map[civilDate][]ExceptionEntry
}

// civilDate is a calendar date normalized to UTC midnight, used as a map
// key so lookups don't depend on time-of-day or monotonic readings.
type civilDate time.Time

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (d civilDate) time() time.Time { return time.Time(d) }

// New builds a Calendar. rules maps a Weekday to its (unsorted) working
// periods; exceptions maps a date (time-of-day ignored) to its (ordered)
// override entries. New does not validate its input — see package
// schedvalidate for the out-of-core validator described by the
// calendar-input contract.
func New(patternID string, rules map[Weekday][]Period, exceptions map[time.Time][]ExceptionEntry) *Calendar {
	c := &Calendar{
		patternID:  patternID,
		rules:      make(map[Weekday][]Period, len(rules)),
		exceptions: make(map[civilDate][]ExceptionEntry, len(exceptions)),
	}
	for wd, periods := range rules {
		cp := append([]Period(nil), periods...)
		sortPeriodsByStart(cp)
		c.rules[wd] = cp
	}
	for dt, entries := range exceptions {
		c.exceptions[dateOf(dt)] = append([]ExceptionEntry(nil), entries...)
	}
	return c
}

// PatternID returns the calendar's identifying pattern id.
func (c *Calendar) PatternID() string { return c.patternID }

func sortPeriodsByStart(p []Period) {
	// insertion sort: rule/exception period lists are always small
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && p[j].Start < p[j-1].Start; j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

// PeriodsForDate returns the ordered working periods applicable to d,
// resolving weekly rules, overnight carryover from the previous day, and
// any exception entry for d.
func (c *Calendar) PeriodsForDate(d time.Time) []Period {
	cd := dateOf(d)
	if entries, ok := c.exceptions[cd]; ok {
		return c.resolveExceptions(cd, entries)
	}
	return c.resolveRules(cd)
}

func (c *Calendar) resolveRules(d civilDate) []Period {
	var periods []Period

	wd := WeekdayOf(d.time())
	for _, p := range c.rules[wd] {
		if p.Overnight() {
			periods = append(periods, Period{Start: p.Start, End: 0})
		} else {
			periods = append(periods, p)
		}
	}

	prev := dateOf(d.time().AddDate(0, 0, -1))
	prevWd := WeekdayOf(prev.time())
	for _, p := range c.rules[prevWd] {
		if p.Overnight() && p.End != 0 {
			periods = append(periods, Period{Start: 0, End: p.End})
		}
	}

	sortPeriodsByStart(periods)
	return periods
}

func (c *Calendar) resolveExceptions(d civilDate, entries []ExceptionEntry) []Period {
	hasFullRemoval := false
	for _, e := range entries {
		if !e.IsWorking && !e.HasRange {
			hasFullRemoval = true
			break
		}
	}

	var periods []Period
	if !hasFullRemoval {
		periods = c.resolveRules(d)
	}
	for _, e := range entries {
		if e.IsWorking {
			periods = append(periods, Period{Start: e.Start, End: e.End})
		}
		// is_working == false with a range is reserved for partial removal;
		// such entries are ignored here, and schedvalidate accepts them
		// without rejecting.
	}

	sortPeriodsByStart(periods)
	return periods
}

// IntervalsForDate converts d's working periods into concrete datetime
// intervals. A period whose End is 0 (end-of-day) yields an interval ending
// at midnight on the following date.
func (c *Calendar) IntervalsForDate(d time.Time) []Interval {
	periods := c.PeriodsForDate(d)
	cd := dateOf(d)
	out := make([]Interval, 0, len(periods))
	for _, p := range periods {
		start := addMinutesToDate(cd.time(), int(p.Start))
		var end time.Time
		if p.End == 0 {
			end = addMinutesToDate(dateOf(cd.time().AddDate(0, 0, 1)).time(), 0)
		} else {
			end = addMinutesToDate(cd.time(), int(p.End))
		}
		out = append(out, Interval{Start: start, End: end})
	}
	return out
}

func addMinutesToDate(midnight time.Time, minutes int) time.Time {
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

// AddMinutes walks forward from start consuming n minutes of working time
// and returns the resulting datetime. AddMinutes(start, 0) returns start
// unchanged. The walk has no horizon limit: it keeps visiting dates,
// including entirely non-working ones, until n is exhausted.
func (c *Calendar) AddMinutes(start time.Time, n int) time.Time {
	if n == 0 {
		return start
	}
	remaining := n
	cursor := start
	day := dateOf(start)
	for {
		for _, iv := range c.IntervalsForDate(day.time()) {
			if !iv.End.After(cursor) {
				continue
			}
			from := iv.Start
			if from.Before(cursor) {
				from = cursor
			}
			available := int(iv.End.Sub(from) / time.Minute)
			if available <= 0 {
				continue
			}
			if remaining <= available {
				return from.Add(time.Duration(remaining) * time.Minute)
			}
			remaining -= available
			cursor = iv.End
		}
		day = dateOf(day.time().AddDate(0, 0, 1))
		cursor = day.time()
	}
}

// SubtractMinutes walks backward from end consuming n minutes of working
// time and returns the resulting datetime. It is the mirror image of
// AddMinutes.
func (c *Calendar) SubtractMinutes(end time.Time, n int) time.Time {
	if n == 0 {
		return end
	}
	remaining := n
	cursor := end
	day := dateOf(end)
	for {
		ivs := c.IntervalsForDate(day.time())
		for i := len(ivs) - 1; i >= 0; i-- {
			iv := ivs[i]
			if !iv.Start.Before(cursor) {
				continue
			}
			to := iv.End
			if to.After(cursor) {
				to = cursor
			}
			available := int(to.Sub(iv.Start) / time.Minute)
			if available <= 0 {
				continue
			}
			if remaining <= available {
				return to.Add(-time.Duration(remaining) * time.Minute)
			}
			remaining -= available
			cursor = iv.Start
		}
		day = dateOf(day.time().AddDate(0, 0, -1))
		cursor = dateOf(day.time().AddDate(0, 0, 1)).time()
	}
}

// WorkingMinutesBetween counts the working minutes in [a, b). It returns 0
// if a >= b.
func (c *Calendar) WorkingMinutesBetween(a, b time.Time) int {
	if !a.Before(b) {
		return 0
	}
	total := 0
	day := dateOf(a)
	end := dateOf(b)
	for !day.time().After(end.time()) {
		for _, iv := range c.IntervalsForDate(day.time()) {
			from, to := iv.Start, iv.End
			if from.Before(a) {
				from = a
			}
			if to.After(b) {
				to = b
			}
			if from.Before(to) {
				total += int(to.Sub(from) / time.Minute)
			}
		}
		day = dateOf(day.time().AddDate(0, 0, 1))
	}
	return total
}

// WorkingIntervalsInRange lazily yields the clamped, non-empty
// intersections of each date's working intervals with [a, b), strictly
// increasing by start.
func (c *Calendar) WorkingIntervalsInRange(a, b time.Time) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if !a.Before(b) {
			return
		}
		day := dateOf(a)
		end := dateOf(b)
		for !day.time().After(end.time()) {
			for _, iv := range c.IntervalsForDate(day.time()) {
				from, to := iv.Start, iv.End
				if from.Before(a) {
					from = a
				}
				if to.After(b) {
					to = b
				}
				if from.Before(to) {
					if !yield(Interval{Start: from, End: to}) {
						return
					}
				}
			}
			day = dateOf(day.time().AddDate(0, 0, 1))
		}
	}
}
