// Package schedview renders ASCII visualisations of a calendar or bitmap,
// for development-time inspection. It is never imported by the core
// packages.
package schedview

import (
	"fmt"
	"strings"
	"time"

	"github.com/pgaskin/finitecap/pkg/occupancy"
	"github.com/pgaskin/finitecap/pkg/timeunit"
	"github.com/pgaskin/finitecap/pkg/workcal"
)

const (
	charsPerDay    = 48
	minutesPerChar = 30
)

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%16s  ", "")
	for h := 0; h < 24; h++ {
		if h%3 == 0 {
			fmt.Fprintf(&b, "%02d", h)
		} else {
			b.WriteString("  ")
		}
	}
	return b.String()
}

// Calendar renders one row per date in [start, end) showing working periods
// as '#' and non-working time as '.'.
func Calendar(cal *workcal.Calendar, start, end time.Time) string {
	var lines []string
	lines = append(lines, header())

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		row := []byte(strings.Repeat(".", charsPerDay))
		for _, p := range cal.PeriodsForDate(d) {
			startMin, endMin := int(p.Start), int(p.End)
			if p.End == 0 {
				endMin = 24 * 60
			}
			sc, ec := startMin/minutesPerChar, endMin/minutesPerChar
			if ec > charsPerDay {
				ec = charsPerDay
			}
			for i := sc; i < ec; i++ {
				row[i] = '#'
			}
		}
		label := fmt.Sprintf("%s %s", dayNames[workcal.WeekdayOf(d)], d.Format("02 Jan"))
		lines = append(lines, fmt.Sprintf("%16s  %s", label, row))
	}
	return strings.Join(lines, "\n")
}

// Bitmap renders one row per date covered by bm, legend '.' = non-working,
// '-' = free, 'A'-'Z' = allocated (by operation, cycling after 26 distinct
// operations).
func Bitmap(bm *occupancy.Bitmap, resolution timeunit.Resolution, epoch time.Time) string {
	const labelChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	opLabels := make(map[string]byte)
	var opOrder []string
	unitOwner := make(map[int64]byte)
	for _, a := range bm.Allocations() {
		label, ok := opLabels[a.OperationID]
		if !ok {
			label = labelChars[len(opLabels)%len(labelChars)]
			opLabels[a.OperationID] = label
			opOrder = append(opOrder, a.OperationID)
		}
		for _, sp := range a.Spans {
			for u := sp.Start; u < sp.End; u++ {
				unitOwner[u] = label
			}
		}
	}

	var lines []string
	lines = append(lines, header())

	dtStart := resolution.ToDatetime(bm.HorizonBegin(), epoch)
	dtEnd := resolution.ToDatetime(bm.HorizonEnd(), epoch)
	y, m, d := dtStart.Date()
	current := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	for current.Before(dtEnd) {
		dayOffsetMinutes, _ := resolution.ToInt(current, epoch)
		row := []byte(strings.Repeat(".", charsPerDay))

		for c := 0; c < charsPerDay; c++ {
			minStart := dayOffsetMinutes + int64(c*minutesPerChar)
			minEnd := minStart + minutesPerChar

			hasFree, hasAlloc := false, byte(0)
			for u := minStart; u < minEnd; u++ {
				if label, ok := unitOwner[u]; ok {
					hasAlloc = label
				} else if u >= bm.HorizonBegin() && u < bm.HorizonEnd() {
					hasFree = hasFree || bm.Free(u)
				}
			}
			switch {
			case hasAlloc != 0:
				row[c] = hasAlloc
			case hasFree:
				row[c] = '-'
			}
		}

		label := fmt.Sprintf("%s %s", dayNames[workcal.WeekdayOf(current)], current.Format("02 Jan"))
		lines = append(lines, fmt.Sprintf("%16s  %s", label, row))
		current = current.AddDate(0, 0, 1)
	}

	if len(opOrder) > 0 {
		var parts []string
		for _, id := range opOrder {
			parts = append(parts, fmt.Sprintf("%c=%s", opLabels[id], id))
		}
		lines = append(lines, "", "Legend: . = non-working, - = free, "+strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

// MultiResource renders one Bitmap section per resource, in map iteration
// order (callers wanting a stable order should sort resourceIDs
// themselves and call Bitmap directly per id).
func MultiResource(resources map[string]*occupancy.Bitmap, resolution timeunit.Resolution, epoch time.Time) string {
	var sections []string
	for id, bm := range resources {
		sections = append(sections, fmt.Sprintf("=== %s ===", id), Bitmap(bm, resolution, epoch), "")
	}
	return strings.Join(sections, "\n")
}
