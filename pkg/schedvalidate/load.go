package schedvalidate

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pgaskin/finitecap/pkg/workcal"
)

// Load validates doc and, if it passes, builds a workcal.Calendar from it.
// On validation failure it returns the diagnostic list and a nil calendar;
// on success it returns a nil diagnostic list.
func Load(doc []byte) (*workcal.Calendar, []string, error) {
	return LoadWithHolidays(doc, HolidaysNone, time.Time{}, time.Time{})
}

// LoadWithHolidays is Load, additionally seeding set's statutory holidays
// (falling in [from, to)) as full-day "not working" exceptions, merged
// with (and losing ties to) any exception already present in doc for the
// same date. Passing HolidaysNone is equivalent to Load.
func LoadWithHolidays(doc []byte, set HolidaySet, from, to time.Time) (*workcal.Calendar, []string, error) {
	if errs := Validate(doc); len(errs) > 0 {
		return nil, errs, nil
	}
	d, err := parseDocument(doc)
	if err != nil {
		return nil, nil, err
	}

	rules := make(map[workcal.Weekday][]workcal.Period, len(d.Calendar.Rules))
	for key, periods := range d.Calendar.Rules {
		wd, _ := strconv.Atoi(key)
		out := make([]workcal.Period, 0, len(periods))
		for _, p := range periods {
			start, err := workcal.ParseTimeOfDay(p[0])
			if err != nil {
				return nil, nil, fmt.Errorf("schedvalidate: weekday %d: %w", wd, err)
			}
			end, err := workcal.ParseTimeOfDay(p[1])
			if err != nil {
				return nil, nil, fmt.Errorf("schedvalidate: weekday %d: %w", wd, err)
			}
			out = append(out, workcal.Period{Start: start, End: end})
		}
		rules[workcal.Weekday(wd)] = out
	}

	exceptions := make(map[time.Time][]workcal.ExceptionEntry, len(d.Calendar.Exceptions))
	for dateStr, entries := range d.Calendar.Exceptions {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, nil, fmt.Errorf("schedvalidate: exception date %q: %w", dateStr, err)
		}
		out := make([]workcal.ExceptionEntry, 0, len(entries))
		for _, e := range entries {
			entry := workcal.ExceptionEntry{IsWorking: *e.IsWorking}
			if e.Start != nil || e.End != nil {
				start, err := workcal.ParseTimeOfDay(cmp.Or(deref(e.Start), "00:00"))
				if err != nil {
					return nil, nil, fmt.Errorf("schedvalidate: exception %s: %w", dateStr, err)
				}
				end, err := workcal.ParseTimeOfDay(cmp.Or(deref(e.End), "00:00"))
				if err != nil {
					return nil, nil, fmt.Errorf("schedvalidate: exception %s: %w", dateStr, err)
				}
				entry.Start, entry.End = start, end
				entry.HasRange = true
			}
			out = append(out, entry)
		}
		exceptions[date] = out
	}

	if set != HolidaysNone {
		holidays, err := HolidaysAsExceptions(set, from, to)
		if err != nil {
			return nil, nil, err
		}
		for date, entries := range holidays {
			if _, exists := exceptions[date]; !exists {
				exceptions[date] = entries
			}
		}
	}

	patternID := strings.TrimSpace(d.ID)
	return workcal.New(patternID, rules, exceptions), nil, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
