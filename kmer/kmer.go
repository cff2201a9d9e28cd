// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package kmer packs short runs of A/C/G/T bases into fixed-width
// integer codes, and precomputes the tables needed to turn a k-mer
// histogram into a normalized Shannon entropy value.
package kmer

import "math"

const (
	// MinK is the smallest permitted k-mer length.
	MinK = 1

	// MaxK is the largest permitted k-mer length.  15 bases pack
	// into 30 bits, comfortably inside a 32 bit code.
	MaxK = 15

	// Invalid is returned in place of a code whenever the input
	// bases could not be encoded.
	Invalid int32 = -1
)

// baseBits maps one base byte to its 2 bit code, case insensitively.
// The second return value is false for anything other than A/C/G/T.
func baseBits(b byte) (int32, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	default:
		return 0, false
	}
}

// Encode packs exactly len(bases) bases into a code in [0, 4^len(bases)).
// It returns (Invalid, false) if any byte is not A/C/G/T (case
// insensitive).  Encode never allocates.
func Encode(bases []byte) (int32, bool) {
	var code int32
	for _, b := range bases {
		v, ok := baseBits(b)
		if !ok {
			return Invalid, false
		}
		code = (code << 2) | v
	}
	return code, true
}

// Mask returns the bitmask that keeps exactly the low 2*k bits of a
// code, i.e. (1<<(2k))-1.
func Mask(k int) int32 {
	return (int32(1) << uint(2*k)) - 1
}

// Roll produces the code for the window obtained by dropping the
// outgoing base and appending incoming, given the code for the
// previous window.  outgoing is accepted for documentation parity
// with spec.md's roll() signature; it plays no role in the arithmetic
// because left-shift-then-mask already discards the base that is
// sliding out.
//
// Roll returns (Invalid, false) whenever prevValid is false or
// incoming is not A/C/G/T; callers that need to recover from an
// invalid predecessor should re-encode the window from scratch with
// Encode instead of calling Roll.
func Roll(prevCode int32, prevValid bool, k int, outgoing, incoming byte) (int32, bool) {
	_ = outgoing
	if !prevValid {
		return Invalid, false
	}
	v, ok := baseBits(incoming)
	if !ok {
		return Invalid, false
	}
	return ((prevCode << 2) | v) & Mask(k), true
}

// Table holds the precomputed (j/Nwin)*log2(j/Nwin) terms and the
// 1/log2(Nwin) normalization constant for one (window, k) pair.  A
// Table is read-only once built and may be shared by pointer across
// worker goroutines.
type Table struct {
	W    int
	K    int
	Nwin int

	// E[j] = (j/Nwin) * log2(j/Nwin), for j = 0 .. Nwin.  E[0] == 0.
	E []float64

	// Norm is 1/log2(Nwin).  It is only meaningful when Nwin > 1;
	// callers must check Nwin before using it (see NormValid).
	Norm float64
}

// NormValid reports whether Nwin admits a defined normalized entropy
// (spec.md §9, open question (a): Nwin <= 1 leaves entropy
// undefined, and the driver treats that as "never mask").
func (t *Table) NormValid() bool {
	return t.Nwin > 1
}

// NewTable builds the entropy table for a (window, k) pair.  It does
// not validate W and k against the [1,15]/W>=k contract; callers
// (the mask package) perform that validation once per run and surface
// a ConfigError, since a single malformed run should fail fast rather
// than have every record silently skipped.
func NewTable(w, k int) *Table {
	nwin := w - k + 1

	t := &Table{
		W:    w,
		K:    k,
		Nwin: nwin,
	}

	if nwin < 0 {
		nwin = 0
	}
	t.E = make([]float64, nwin+1)
	for j := 1; j <= nwin; j++ {
		p := float64(j) / float64(nwin)
		t.E[j] = p * math.Log2(p)
	}

	if nwin > 1 {
		t.Norm = 1 / math.Log2(float64(nwin))
	}

	return t
}

// Entropy converts esum (= the sum, over every populated code, of
// t.E[count] for that code's current count — i.e. the tracker
// accumulates deltas t.E[j]-t.E[j-1] on every count transition) into
// the normalized entropy H in [0, +inf), clamped at 0 from below per
// spec.md §4.2. Callers must only call this when t.NormValid() is
// true.
//
// Since every t.E[j] is <= 0 (it is (j/Nwin)*log2(j/Nwin) for a
// fraction j/Nwin in (0,1]), esum is always <= 0 and -esum*t.Norm is
// the Shannon entropy of the window's k-mer distribution, normalized
// by log2(Nwin) so that it lands in [0,1] for any valid window.
func (t *Table) Entropy(esum float64) float64 {
	h := -esum * t.Norm
	if h < 0 {
		h = 0
	}
	return h
}
