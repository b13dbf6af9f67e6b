package occupancy

// Allocate walks bm for the earliest fit and commits it: every unit in
// every span is marked occupied and the record is appended to bm's
// allocation list. See Walk for parameter semantics.
func Allocate(bm *Bitmap, operationID string, earliestStart, workUnits int64, allowSplit bool, minSplit int64, deadline *int64) (*AllocationRecord, error) {
	record, err := Walk(bm, operationID, earliestStart, workUnits, allowSplit, minSplit, deadline)
	if err != nil {
		return nil, err
	}
	bm.markSpans(record.Spans, false)
	bm.allocations = append(bm.allocations, record)
	return record, nil
}

// Deallocate is the exact inverse of Allocate: every unit in every span of
// record is marked free again, and record is removed from bm's allocation
// list by pointer identity. Deallocate never fails; a record with spans
// outside the live window has those spans silently clipped, and a record
// not present in bm's allocation list still has its bits freed (its spans
// are taken at face value).
func Deallocate(bm *Bitmap, record *AllocationRecord) {
	bm.markSpans(record.Spans, true)
	for i, a := range bm.allocations {
		if a == record {
			bm.allocations = append(bm.allocations[:i], bm.allocations[i+1:]...)
			break
		}
	}
}

// markSpans sets every bit in every span to free (true) or occupied
// (false), clipping to the live window [horizonBegin, horizonEnd).
func (bm *Bitmap) markSpans(spans []Span, free bool) {
	for _, sp := range spans {
		start, end := sp.Start, sp.End
		if start < bm.horizonBegin {
			start = bm.horizonBegin
		}
		if end > bm.horizonEnd {
			end = bm.horizonEnd
		}
		for i := start; i < end; i++ {
			bm.setFree(i, free)
		}
	}
}
