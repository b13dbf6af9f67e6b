package occupancy

import "fmt"

// Walk performs a read-only earliest-fit search for workUnits starting no
// earlier than earliestStart. It never mutates bm's bits or allocations,
// but it may call extendTo to grow the bitmap when the current horizon
// isn't enough to answer the query.
//
// deadline, if non-nil, bounds the search: a candidate whose Finish would
// exceed *deadline is rejected, and Walk fails with an *Infeasible once the
// scan has exhausted everything before the deadline. With allowSplit,
// minSplit is the smallest free run Walk will consume from; shorter runs
// are skipped entirely.
func Walk(bm *Bitmap, operationID string, earliestStart, workUnits int64, allowSplit bool, minSplit int64, deadline *int64) (*AllocationRecord, error) {
	if workUnits <= 0 {
		return nil, fmt.Errorf("occupancy: work_units must be positive, got %d", workUnits)
	}
	if allowSplit && minSplit <= 0 {
		minSplit = 1
	}
	from := earliestStart
	if from < bm.horizonBegin {
		from = bm.horizonBegin
	}
	if allowSplit {
		return splittableWalk(bm, operationID, from, workUnits, minSplit, deadline)
	}
	return nonSplittableWalk(bm, operationID, from, workUnits, deadline)
}

func nonSplittableWalk(bm *Bitmap, operationID string, from, workUnits int64, deadline *int64) (*AllocationRecord, error) {
	pos := from
	for {
		if pos+workUnits > bm.horizonEnd {
			if deadline != nil && pos >= *deadline {
				return nil, &Infeasible{operationID, workUnits, workUnits, "deadline"}
			}
			bm.extendTo(pos + workUnits + extendChunkDays*bm.unitsPerDay())
		}

		scanLimit := bm.horizonEnd
		if deadline != nil && *deadline < scanLimit {
			scanLimit = *deadline
		}

		runStart := int64(-1)
		runLen := int64(0)
		for i := pos; i < scanLimit; i++ {
			if bm.free(i) {
				if runStart == -1 {
					runStart = i
					runLen = 1
				} else {
					runLen++
				}
				if runLen >= workUnits {
					return &AllocationRecord{
						OperationID: operationID,
						ResourceID:  bm.ResourceID,
						Start:       runStart,
						Finish:      runStart + workUnits,
						WorkUnits:   workUnits,
						AllowSplit:  false,
						Spans:       []Span{{runStart, runStart + workUnits}},
					}, nil
				}
			} else {
				runStart = -1
				runLen = 0
			}
		}

		if deadline != nil && scanLimit >= *deadline {
			return nil, &Infeasible{operationID, workUnits, workUnits, "deadline"}
		}
		if scanLimit >= bm.horizonEnd {
			bm.extendTo(bm.horizonEnd + extendChunkDays*bm.unitsPerDay())
		}
		pos = scanLimit
		if runStart != -1 {
			// rescan a free run that reached the old horizon end, so a run
			// straddling the extension boundary is measured whole
			pos = runStart
		}
	}
}

func splittableWalk(bm *Bitmap, operationID string, from, workUnits, minSplit int64, deadline *int64) (*AllocationRecord, error) {
	remaining := workUnits
	var spans []Span
	pos := from

	for remaining > 0 {
		if pos >= bm.horizonEnd {
			if deadline != nil && pos >= *deadline {
				return nil, &Infeasible{operationID, remaining, workUnits, "deadline"}
			}
			bm.extendTo(pos + extendChunkDays*bm.unitsPerDay())
		}

		effectiveEnd := bm.horizonEnd
		if deadline != nil && *deadline < effectiveEnd {
			effectiveEnd = *deadline
		}

		i := pos
		for i < effectiveEnd {
			if !bm.free(i) {
				i++
				continue
			}
			runStart := i
			runEnd := i
			for runEnd < effectiveEnd && bm.free(runEnd) {
				runEnd++
			}
			runLen := runEnd - runStart
			if runLen < minSplit {
				i = runEnd
				continue
			}
			consume := runLen
			if remaining < consume {
				consume = remaining
			}
			spans = append(spans, Span{runStart, runStart + consume})
			remaining -= consume
			i = runEnd
			if remaining <= 0 {
				break
			}
		}
		pos = i

		if remaining > 0 {
			if deadline != nil && effectiveEnd >= *deadline {
				return nil, &Infeasible{operationID, remaining, workUnits, "deadline"}
			}
			pos = effectiveEnd
			if pos >= bm.horizonEnd {
				bm.extendTo(bm.horizonEnd + extendChunkDays*bm.unitsPerDay())
			}
		}
	}

	return &AllocationRecord{
		OperationID: operationID,
		ResourceID:  bm.ResourceID,
		Start:       spans[0].Start,
		Finish:      spans[len(spans)-1].End,
		WorkUnits:   workUnits,
		AllowSplit:  true,
		Spans:       spans,
	}, nil
}
