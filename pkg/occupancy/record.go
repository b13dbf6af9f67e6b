package occupancy

import "fmt"

// Span is a half-open [Start, End) integer range of bits belonging to one
// allocation.
type Span struct {
	Start, End int64
}

// Len returns the number of units the span covers.
func (s Span) Len() int64 { return s.End - s.Start }

// AllocationRecord is an immutable record of a committed or candidate
// allocation. It is not comparable with == (Spans is a slice); this package
// handles records as *AllocationRecord and matches them by pointer identity.
//
// Invariants:
//   - Spans are sorted by Start, non-overlapping, and lie within
//     [Start, Finish).
//   - The sum of span lengths equals WorkUnits.
//   - If !AllowSplit, len(Spans) == 1 and Finish-Start == WorkUnits.
type AllocationRecord struct {
	OperationID string
	ResourceID  string
	Start       int64
	Finish      int64
	WorkUnits   int64
	AllowSplit  bool
	Spans       []Span
}

// WallTime returns the total elapsed time including non-working gaps.
func (r AllocationRecord) WallTime() int64 { return r.Finish - r.Start }

// Infeasible is returned when a walk cannot complete under its deadline.
// It is never returned for an unbounded walk — only a deadline-bounded one
// can fail.
type Infeasible struct {
	OperationID        string
	WorkUnitsRemaining int64
	WorkUnitsRequested int64
	Reason             string
}

func (e *Infeasible) Error() string {
	return fmt.Sprintf("occupancy: infeasible: operation %q cannot complete - %d/%d units remaining (reason: %s)",
		e.OperationID, e.WorkUnitsRemaining, e.WorkUnitsRequested, e.Reason)
}
