// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package tracker maintains the per-window k-mer histogram used to
// compute sliding-window Shannon entropy (spec.md §3, "Per-window
// state"). Two interchangeable implementations are provided: Dense,
// an array-indexed histogram for small k, and Sparse, a map-indexed
// histogram for large k. Both satisfy the Tracker interface and are
// required to be behaviorally indistinguishable (spec.md §4.4).
package tracker

import "github.com/kshedden/entromask/kmer"

// KDense is the largest k for which the dense, array-backed tracker
// is chosen automatically. 4^7 = 16384 cells, which fits comfortably
// in L1/L2 cache; beyond that the sparse tracker is preferred
// (spec.md §4.5).
const KDense = 7

// Tracker is the capability set a masking driver needs from a
// k-mer histogram: add one k-mer offset, remove one k-mer offset,
// and read the current normalized entropy. A single Tracker is
// scoped to one record at a time; Reset prepares it for reuse by
// the same worker goroutine on the next record (spec.md's "thread
// local arena" pattern).
type Tracker interface {
	// Add registers one k-mer offset entering the window. If
	// valid is false, the offset is counted as an invalid k-mer
	// only, and code is ignored.
	Add(code int32, valid bool)

	// Remove registers one k-mer offset leaving the window,
	// mirroring Add.
	Remove(code int32, valid bool)

	// Entropy returns the current normalized entropy H. Callers
	// must not call Entropy when the table backing this tracker
	// has Nwin <= 1 (kmer.Table.NormValid() is false); the driver
	// handles that case itself, before ever touching a tracker.
	Entropy() float64

	// Unique returns the number of distinct codes with count >= 1
	// in the current window.
	Unique() int

	// InvalidKmers returns the number of offsets in the current
	// window whose k-mer was invalid.
	InvalidKmers() int

	// Reset clears all per-record state so the tracker can be
	// reused for the next record on the same worker.
	Reset()

	// Histogram returns cc, the count-of-counts array (spec.md §4.3):
	// cc[j] is the number of codes currently appearing exactly j
	// times in the window, for j = 1 .. Nwin; cc[0] is not
	// maintained and stays 0. The returned slice
	// aliases the tracker's internal state and must not be retained
	// or mutated past the next Add/Remove/Reset call.
	Histogram() []int32
}

// InitWindow populates t with every k-mer offset of the initial
// window seq[0:w], where w = t's table W. It is the shared
// implementation of spec.md §4.6 step 2, usable by any Tracker
// implementation since it is expressed purely in terms of Add.
func InitWindow(t Tracker, seq []byte, k int) {
	for i := 0; i+k <= len(seq); i++ {
		code, ok := kmer.Encode(seq[i : i+k])
		t.Add(code, ok)
	}
}

// Select chooses dense or sparse for a given k-mer length and method
// override. method is one of "auto", "dense", or "sparse"; an
// unrecognized method is treated as "auto". Selection never changes
// observable masking output (spec.md §4.5).
func Select(k int, method string) bool {
	switch method {
	case "dense":
		return true
	case "sparse":
		return false
	default:
		return k <= KDense
	}
}

// New constructs the Tracker chosen by Select for the given table and
// method override.
func New(tbl *kmer.Table, method string) Tracker {
	if Select(tbl.K, method) {
		return NewDense(tbl)
	}
	return NewSparse(tbl)
}
