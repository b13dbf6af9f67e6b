// Package occupancy implements the auto-extending occupancy bitmap: Layer 2
// of finitecap. A Bitmap materializes a contiguous integer window of a
// workcal.Calendar into packed capacity state and provides earliest-fit
// search, commit, release, dynamic exceptions, and speculative
// snapshot/restore over it.
package occupancy

import (
	"log/slog"
	"time"

	kbitmap "github.com/kelindar/bitmap"

	"github.com/pgaskin/finitecap/pkg/timeunit"
	"github.com/pgaskin/finitecap/pkg/workcal"
)

// extendChunkDays is the minimum number of days' worth of units an
// auto-extension materializes at once, amortizing the per-extension cost of
// re-scanning the calendar.
const extendChunkDays = 7

// Bitmap is the mutable capacity state for one resource. It is bound to a
// single calendar and resolution for its entire lifetime; the calendar must
// outlive the bitmap and must not mutate while the bitmap exists.
//
// A Bitmap is not safe for concurrent mutation: callers that need
// independent branches should use Copy, or Checkpoint/Restore for
// serialized backtracking on a single branch.
type Bitmap struct {
	ResourceID string

	epoch      time.Time
	resolution timeunit.Resolution
	calendar   *workcal.Calendar

	horizonBegin int64
	horizonEnd   int64
	bits         kbitmap.Bitmap // bits[i] == 1 iff slot horizonBegin+i is free

	allocations []*AllocationRecord
}

// HorizonBegin is the integer offset of bit 0 from the epoch.
func (bm *Bitmap) HorizonBegin() int64 { return bm.horizonBegin }

// HorizonEnd is one past the last materialized bit.
func (bm *Bitmap) HorizonEnd() int64 { return bm.horizonEnd }

// Calendar returns the calendar this bitmap was built from.
func (bm *Bitmap) Calendar() *workcal.Calendar { return bm.calendar }

// Resolution returns the time resolution this bitmap was built with.
func (bm *Bitmap) Resolution() timeunit.Resolution { return bm.resolution }

// Allocations returns the committed allocations, in commit order. The
// returned slice must not be mutated. Each record's pointer identity is
// what Deallocate matches against.
func (bm *Bitmap) Allocations() []*AllocationRecord { return bm.allocations }

// FromCalendar materializes cal into a fresh Bitmap covering
// [horizonStart, horizonEnd). Both datetimes are converted through
// resolution against epoch, so they're subject to the same NaiveRequired /
// Misaligned failures as any other timeunit conversion.
func FromCalendar(cal *workcal.Calendar, horizonStart, horizonEnd time.Time, epoch time.Time, resolution timeunit.Resolution) (*Bitmap, error) {
	begin, err := resolution.ToInt(horizonStart, epoch)
	if err != nil {
		return nil, err
	}
	end, err := resolution.ToInt(horizonEnd, epoch)
	if err != nil {
		return nil, err
	}
	bm := &Bitmap{
		ResourceID:   cal.PatternID(),
		epoch:        epoch,
		resolution:   resolution,
		calendar:     cal,
		horizonBegin: begin,
		horizonEnd:   end,
	}
	if end > begin {
		bm.fillFromCalendar(begin, end)
	}
	return bm, nil
}

// unitsPerDay is the number of resolution units in a 24-hour day.
func (bm *Bitmap) unitsPerDay() int64 {
	return 24 * 60 * 60 / bm.resolution.UnitSeconds
}

// fillFromCalendar sets bits [from, to) (absolute offsets) to 1 for every
// working interval the calendar reports in the corresponding datetime
// range. Bits outside the calendar's working intervals default to 0 and
// are never written, leaving a freshly materialized region's non-working slots at zero.
func (bm *Bitmap) fillFromCalendar(from, to int64) {
	dtFrom := bm.resolution.ToDatetime(from, bm.epoch)
	dtTo := bm.resolution.ToDatetime(to, bm.epoch)
	for iv := range bm.calendar.WorkingIntervalsInRange(dtFrom, dtTo) {
		// ToInt cannot fail here: iv's endpoints are derived from dtFrom/dtTo
		// via the same resolution, so they're aligned by construction.
		s, _ := bm.resolution.ToInt(iv.Start, bm.epoch)
		e, _ := bm.resolution.ToInt(iv.End, bm.epoch)
		if s < from {
			s = from
		}
		if e > to {
			e = to
		}
		for i := s; i < e; i++ {
			bm.bits.Set(uint32(i - bm.horizonBegin))
		}
	}
}

// extendTo grows the bitmap so horizonEnd >= neededEnd, if it isn't
// already. New bits are filled from the calendar; existing allocation bits
// are never touched, since extension only ever appends to the tail.
func (bm *Bitmap) extendTo(neededEnd int64) {
	if neededEnd <= bm.horizonEnd {
		return
	}
	oldEnd := bm.horizonEnd
	chunk := extendChunkDays * bm.unitsPerDay()
	newEnd := neededEnd
	if want := oldEnd + chunk; want > newEnd {
		newEnd = want
	}
	bm.horizonEnd = newEnd
	bm.fillFromCalendar(oldEnd, newEnd)
	slog.Debug("occupancy: auto-extended bitmap",
		"resource_id", bm.ResourceID, "old_end", oldEnd, "new_end", newEnd)
}

// Free reports whether absolute offset p is currently free (working and
// unoccupied). p must lie within [HorizonBegin, HorizonEnd).
func (bm *Bitmap) Free(p int64) bool {
	return bm.free(p)
}

// free reports whether absolute offset p is currently free (working and
// unoccupied).
func (bm *Bitmap) free(p int64) bool {
	return bm.bits.Contains(uint32(p - bm.horizonBegin))
}

func (bm *Bitmap) setFree(p int64, free bool) {
	idx := uint32(p - bm.horizonBegin)
	if free {
		bm.bits.Set(idx)
	} else {
		bm.bits.Remove(idx)
	}
}

// Copy returns a deep copy: independent bits and allocation list, sharing
// the calendar and resolution read-only. Mutating the copy never affects
// the original, or vice versa.
func (bm *Bitmap) Copy() *Bitmap {
	return &Bitmap{
		ResourceID:   bm.ResourceID,
		epoch:        bm.epoch,
		resolution:   bm.resolution,
		calendar:     bm.calendar,
		horizonBegin: bm.horizonBegin,
		horizonEnd:   bm.horizonEnd,
		bits:         cloneBits(bm.bits),
		allocations:  append([]*AllocationRecord(nil), bm.allocations...),
	}
}

func cloneBits(b kbitmap.Bitmap) kbitmap.Bitmap {
	return b.Clone(nil)
}
