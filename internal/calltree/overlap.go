package calltree

import (
	"math/bits"

	"github.com/metaflame/pkg/model"
)

// TimeOverlaps splits r into numBuckets equal buckets and sums, per bucket, how much of
// each sample's duration falls inside it using truncating value ratios.
// It returns false when numBuckets is zero or no bucket received any duration.
func (n *Node) TimeOverlaps(numBuckets int, r model.TimeRange) ([]Aggregate, bool) {
	return n.TimeOverlapsMode(numBuckets, r, ValueTruncate)
}

// TimeOverlapsMode is TimeOverlaps with an explicit value ratio mode.
func (n *Node) TimeOverlapsMode(numBuckets int, r model.TimeRange, mode ValueMode) ([]Aggregate, bool) {
	if numBuckets < 1 {
		return nil, false
	}
	size := r.Len() / uint64(numBuckets)
	if size == 0 {
		return nil, false
	}

	out := make([]Aggregate, numBuckets)
	found := false
	for i := range out {
		bucketStart := r.Start + uint64(i)*size
		bucketEnd := bucketStart + size

		var agg Aggregate
		for _, s := range n.Samples {
			if s.Dur == 0 {
				continue
			}
			lo := max(bucketStart, s.Start)
			hi := min(bucketEnd, s.End())
			if hi <= lo {
				continue
			}
			overlap := hi - lo
			agg.Dur += overlap
			agg.Value += scaleValue(overlap, s, mode)
		}
		if agg.Dur > 0 {
			found = true
		}
		out[i] = agg
	}
	if !found {
		return nil, false
	}
	return out, true
}

// scaleValue attributes the part of s.Value that overlap covers. overlap never exceeds
// s.Dur, so the 128-bit quotient always fits.
func scaleValue(overlap uint64, s Sample, mode ValueMode) uint64 {
	if mode == ValueProportional {
		hi, lo := bits.Mul64(overlap, s.Value)
		q, _ := bits.Div64(hi, lo, s.Dur)
		return q
	}
	return (overlap / s.Dur) * s.Value
}

// ThreadOverlaps sums duration and value per thread for threads 0..numThreads-1.
func (n *Node) ThreadOverlaps(numThreads int) []Aggregate {
	if numThreads < 0 {
		numThreads = 0
	}
	out := make([]Aggregate, numThreads)
	for _, s := range n.Samples {
		if s.TID >= 0 && s.TID < numThreads {
			out[s.TID].Dur += s.Dur
			out[s.TID].Value += s.Value
		}
	}
	return out
}

// SingleThreadOverlap returns a one-element result summing the samples of thread.
func (n *Node) SingleThreadOverlap(thread int) []Aggregate {
	var agg Aggregate
	for _, s := range n.Samples {
		if s.TID == thread {
			agg.Dur += s.Dur
			agg.Value += s.Value
		}
	}
	return []Aggregate{agg}
}

// Overlaps dispatches to TimeOverlapsMode or ThreadOverlaps by axis. Thread results are
// always present.
func (n *Node) Overlaps(axis model.Axis, numBuckets, numThreads int, r model.TimeRange, mode ValueMode) ([]Aggregate, bool) {
	if axis == model.AxisThread {
		return n.ThreadOverlaps(numThreads), true
	}
	return n.TimeOverlapsMode(numBuckets, r, mode)
}
