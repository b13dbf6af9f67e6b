package occupancy

import (
	"errors"
	"testing"
	"time"

	"github.com/pgaskin/finitecap/pkg/timeunit"
	"github.com/pgaskin/finitecap/pkg/workcal"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

// standardCalendar mirrors the reference week: Mon-Fri 08:00-17:00.
func standardCalendar() *workcal.Calendar {
	periods := []workcal.Period{{Start: 8 * 60, End: 17 * 60}}
	return workcal.New("standard", map[workcal.Weekday][]workcal.Period{
		workcal.Monday:    periods,
		workcal.Tuesday:   periods,
		workcal.Wednesday: periods,
		workcal.Thursday:  periods,
		workcal.Friday:    periods,
	}, nil)
}

// holidayCalendar is the standard calendar with Tuesday off.
func holidayCalendar() *workcal.Calendar {
	periods := []workcal.Period{{Start: 8 * 60, End: 17 * 60}}
	tue := utc(2025, 1, 7, 0, 0)
	return workcal.New("holiday", map[workcal.Weekday][]workcal.Period{
		workcal.Monday:    periods,
		workcal.Tuesday:   periods,
		workcal.Wednesday: periods,
		workcal.Thursday:  periods,
		workcal.Friday:    periods,
	}, map[time.Time][]workcal.ExceptionEntry{
		tue: {{IsWorking: false}},
	})
}

var epoch = utc(2025, 1, 6, 0, 0)

func freshBitmap(t *testing.T, cal *workcal.Calendar, days int) *Bitmap {
	t.Helper()
	start := epoch
	end := start.AddDate(0, 0, days)
	bm, err := FromCalendar(cal, start, end, epoch, timeunit.Minute)
	if err != nil {
		t.Fatalf("FromCalendar: %v", err)
	}
	return bm
}

func TestNonSplittableWalk(t *testing.T) {
	// A non-splittable walk returns a single contiguous span.
	bm := freshBitmap(t, standardCalendar(), 7)
	rec, err := Walk(bm, "OP-1", 480, 300, false, 1, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if rec.Start != 480 || rec.Finish != 780 {
		t.Fatalf("got start=%d finish=%d, want 480,780", rec.Start, rec.Finish)
	}
	if len(rec.Spans) != 1 || rec.Spans[0] != (Span{480, 780}) {
		t.Fatalf("unexpected spans: %v", rec.Spans)
	}
}

func TestNonSplittableWalkInfeasibleAtDeadline(t *testing.T) {
	// 600 units can't fit in a 540-minute day before the deadline.
	bm := freshBitmap(t, standardCalendar(), 7)
	deadline := int64(1020)
	_, err := Walk(bm, "OP-1", 480, 600, false, 1, &deadline)
	var infeasible *Infeasible
	if !errors.As(err, &infeasible) {
		t.Fatalf("expected *Infeasible, got %v", err)
	}
	if infeasible.Reason != "deadline" {
		t.Fatalf("got reason %q, want deadline", infeasible.Reason)
	}
}

func TestSplittableWalkStandardCalendar(t *testing.T) {
	// A splittable walk spanning two days takes Mon full day (480,1020) then Tue full day (1920,2460).
	bm := freshBitmap(t, standardCalendar(), 7)
	rec, err := Walk(bm, "OP-1", 480, 1080, true, 1, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []Span{{480, 1020}, {1920, 2460}}
	if len(rec.Spans) != len(want) {
		t.Fatalf("got spans %v, want %v", rec.Spans, want)
	}
	for i := range want {
		if rec.Spans[i] != want[i] {
			t.Fatalf("got spans %v, want %v", rec.Spans, want)
		}
	}
}

func TestSplittableWalkHolidayCalendarSkipsClosedDay(t *testing.T) {
	// With Tuesday a holiday, the walk splits across Mon and Wed.
	bm := freshBitmap(t, holidayCalendar(), 7)
	rec, err := Walk(bm, "OP-1", 480, 1080, true, 1, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []Span{{480, 1020}, {480 + 2*1440, 480 + 2*1440 + 540}}
	if len(rec.Spans) != len(want) {
		t.Fatalf("got spans %v, want %v", rec.Spans, want)
	}
	for i := range want {
		if rec.Spans[i] != want[i] {
			t.Fatalf("got spans %v, want %v", rec.Spans, want)
		}
	}
}

func TestAllocateDeallocateRestoresBits(t *testing.T) {
	// Allocate then deallocate leaves bits identical to the initial state.
	bm := freshBitmap(t, standardCalendar(), 7)
	before := bitsSnapshot(bm)

	rec, err := Allocate(bm, "OP-1", 480, 300, false, 1, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if bitsSnapshot(bm) == before {
		t.Fatalf("allocate should have changed bits")
	}

	Deallocate(bm, rec)
	after := bitsSnapshot(bm)
	if after != before {
		t.Fatalf("deallocate did not restore bits exactly")
	}
}

func TestApplyDynamicExceptionReportsConflict(t *testing.T) {
	// A dynamic closure over an allocated span reports that allocation.
	bm := freshBitmap(t, standardCalendar(), 7)
	rec, err := Allocate(bm, "OP-1", 480, 120, false, 1, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	conflicts := ApplyDynamicException(bm, 540, 600, false)
	if len(conflicts) != 1 || conflicts[0] != rec {
		t.Fatalf("got conflicts %v, want [%v]", conflicts, rec)
	}
}

func TestApplyDynamicExceptionAddsCapacity(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 7)
	// Saturday (day offset 5, minute 0) is normally non-working.
	satStart := 5 * 1440
	if bm.free(int64(satStart)) {
		t.Fatalf("expected saturday to start non-working")
	}
	conflicts := ApplyDynamicException(bm, int64(satStart), int64(satStart+60), true)
	if conflicts != nil {
		t.Fatalf("capacity addition should report no conflicts, got %v", conflicts)
	}
	if !bm.free(int64(satStart)) {
		t.Fatalf("expected saturday slot to be free after dynamic addition")
	}
}

func TestCheckpointRestore(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 7)
	before := bitsSnapshot(bm)
	snap := bm.Checkpoint()

	if _, err := Allocate(bm, "OP-1", 480, 300, false, 1, nil); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if bitsSnapshot(bm) == before {
		t.Fatalf("allocate should have changed bits")
	}

	bm.Restore(snap)
	if bitsSnapshot(bm) != before {
		t.Fatalf("restore did not reproduce the checkpointed state")
	}
	if len(bm.Allocations()) != 0 {
		t.Fatalf("restore should drop allocations made after the checkpoint")
	}
}

func TestRestoreTruncatesAfterExtension(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 2)
	snap := bm.Checkpoint()
	originalEnd := bm.HorizonEnd()

	// Force extension by walking past the initial 2-day horizon.
	if _, err := Allocate(bm, "OP-1", 480, 10000, true, 1, nil); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if bm.HorizonEnd() <= originalEnd {
		t.Fatalf("expected bitmap to have grown")
	}

	bm.Restore(snap)
	if bm.HorizonEnd() != originalEnd {
		t.Fatalf("restore should truncate horizon back to %d, got %d", originalEnd, bm.HorizonEnd())
	}
}

func TestCopyIsIndependent(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 7)
	before := bitsSnapshot(bm)

	dup := bm.Copy()
	if _, err := Allocate(dup, "OP-1", 480, 300, false, 1, nil); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if bitsSnapshot(bm) != before {
		t.Fatalf("mutating the copy affected the original")
	}
	if bitsSnapshot(dup) == before {
		t.Fatalf("copy should reflect its own mutation")
	}
}

func TestAutoExtension(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 2)
	initialEnd := bm.HorizonEnd()

	rec, err := Walk(bm, "OP-1", 480, 300, false, 1, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if rec.Start != 480 {
		t.Fatalf("expected the fit within the initial horizon, got start=%d", rec.Start)
	}

	// A work size that can't fit in 2 days of 540-minute windows forces
	// extension.
	big, err := Walk(bm, "OP-2", 480, 10000, true, 1, nil)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if bm.HorizonEnd() <= initialEnd {
		t.Fatalf("expected auto-extension, horizon end stayed at %d", bm.HorizonEnd())
	}
	var total int64
	for _, sp := range big.Spans {
		total += sp.Len()
	}
	if total != 10000 {
		t.Fatalf("got total span length %d, want 10000", total)
	}
}

func TestWorkUnitsZeroRejected(t *testing.T) {
	bm := freshBitmap(t, standardCalendar(), 7)
	if _, err := Walk(bm, "OP-1", 480, 0, false, 1, nil); err == nil {
		t.Fatalf("expected an error for work_units == 0")
	}
}

func TestMonotonicity(t *testing.T) {
	// For a fixed earliest_start, w1 <= w2 implies finish1 <= finish2.
	for w1 := int64(1); w1 <= 500; w1 += 37 {
		bm := freshBitmap(t, standardCalendar(), 14)
		r1, err := Walk(bm, "OP-1", 480, w1, true, 1, nil)
		if err != nil {
			t.Fatalf("walk w1=%d: %v", w1, err)
		}
		w2 := w1 + 50
		r2, err := Walk(bm, "OP-2", 480, w2, true, 1, nil)
		if err != nil {
			t.Fatalf("walk w2=%d: %v", w2, err)
		}
		if r1.Finish > r2.Finish {
			t.Fatalf("w1=%d finish=%d > w2=%d finish=%d", w1, r1.Finish, w2, r2.Finish)
		}
	}
}

func TestSpansNeverOverlapAcrossAllocations(t *testing.T) {
	// After several allocations on the same bitmap, no two span ranges intersect.
	bm := freshBitmap(t, standardCalendar(), 14)
	var all []Span
	for i, units := range []int64{100, 200, 150, 90} {
		rec, err := Allocate(bm, string(rune('A'+i)), 480, units, true, 30, nil)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		all = append(all, rec.Spans...)
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].Start < all[j].End && all[j].Start < all[i].End {
				t.Fatalf("spans overlap: %v and %v", all[i], all[j])
			}
		}
	}
}

func TestCrossLayerAgreement(t *testing.T) {
	// A splittable allocate's Finish matches cal.AddMinutes on a fresh bitmap.
	cal := standardCalendar()
	bm := freshBitmap(t, cal, 14)
	const n = 700
	rec, err := Allocate(bm, "OP-1", 480, n, true, 1, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	start := timeunit.Minute.ToDatetime(480, epoch)
	want := cal.AddMinutes(start, n)
	got := timeunit.Minute.ToDatetime(rec.Finish, epoch)
	if !got.Equal(want) {
		t.Fatalf("got finish %v, want %v", got, want)
	}
}

func bitsSnapshot(bm *Bitmap) string {
	buf := make([]byte, bm.horizonEnd-bm.horizonBegin)
	for i := range buf {
		if bm.free(bm.horizonBegin + int64(i)) {
			buf[i] = 1
		}
	}
	return string(buf)
}
