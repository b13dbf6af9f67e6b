package workcal

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight, in
// [0, 1439]. As the end of a working Period, 0 is a sentinel meaning
// "end of day" (midnight at the start of the next date) rather than the
// instant the day began — this mirrors how a period boundary is always
// written "00:00" in the source calendar-input format regardless of which
// midnight it refers to.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("workcal: invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("workcal: invalid time %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("workcal: invalid time %q: bad minute", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// String renders t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Period is an ordered pair of wall-clock times, half-open [Start, End).
// If End <= Start (with End == 0 meaning end-of-day) the period is
// overnight, spanning from Start on one date to End on the next.
type Period struct {
	Start, End TimeOfDay
}

// Overnight reports whether p crosses midnight.
func (p Period) Overnight() bool {
	// (00:00, 00:00) is the whole day, not an overnight period.
	return p.End <= p.Start && !(p.Start == 0 && p.End == 0)
}
