package schedvalidate

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/us"

	"github.com/pgaskin/finitecap/pkg/workcal"
)

// HolidaySet names a bundled statutory holiday list.
type HolidaySet string

const (
	HolidaysNone   HolidaySet = ""
	HolidaysUS     HolidaySet = "US"
	HolidaysCanada HolidaySet = "CA"
)

// HolidaysAsExceptions expands set's holidays falling in [from, to) into
// full-day "not working" exception entries, suitable for seeding a
// facility calendar's statutory closures without hand-writing every date.
func HolidaysAsExceptions(set HolidaySet, from, to time.Time) (map[time.Time][]workcal.ExceptionEntry, error) {
	bc := cal.NewBusinessCalendar()
	switch HolidaySet(strings.ToUpper(string(set))) {
	case HolidaysUS:
		bc.AddHoliday(us.Holidays...)
	case HolidaysCanada:
		bc.AddHoliday(ca.Holidays...)
	case HolidaysNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("schedvalidate: unknown holiday set %q", set)
	}

	out := make(map[time.Time][]workcal.ExceptionEntry)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if actual, _, _ := bc.IsHoliday(d); actual {
			out[d] = []workcal.ExceptionEntry{{IsWorking: false}}
		}
	}
	return out, nil
}
