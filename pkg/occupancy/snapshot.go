package occupancy

import kbitmap "github.com/kelindar/bitmap"

// Snapshot is an opaque, immutable capture of a Bitmap's bits and
// allocations, taken by Checkpoint and consumed by Restore. It carries no
// exported fields: callers must treat it as a capability, not a value to
// inspect.
type Snapshot struct {
	horizonEnd  int64
	bits        kbitmap.Bitmap
	allocations []*AllocationRecord
}

// Checkpoint captures the current bits and allocations for later Restore.
// Taking a checkpoint does not itself mutate bm.
func (bm *Bitmap) Checkpoint() *Snapshot {
	return &Snapshot{
		horizonEnd:  bm.horizonEnd,
		bits:        cloneBits(bm.bits),
		allocations: append([]*AllocationRecord(nil), bm.allocations...),
	}
}

// Restore overwrites bm's bits and allocations with snap's, in place.
// horizonBegin is invariant across Restore. If bm was extended after snap
// was taken, Restore truncates horizonEnd back to the snapshotted length;
// bits set beyond that length (from the extension) are discarded.
func (bm *Bitmap) Restore(snap *Snapshot) {
	bm.horizonEnd = snap.horizonEnd
	bm.bits = cloneBits(snap.bits)
	bm.allocations = append([]*AllocationRecord(nil), snap.allocations...)
}
