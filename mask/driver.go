// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

package mask

import (
	"github.com/kshedden/entromask/kmer"
	"github.com/kshedden/entromask/tracker"
)

// Params are the parameters of one masking run (spec.md §6).
type Params struct {
	// W is the window size in bases.
	W int

	// K is the k-mer length, 1 <= K <= 15.
	K int

	// Theta is the normalized entropy threshold in [0,1]. A
	// window is masked when its entropy is strictly less than
	// Theta.
	Theta float64

	// Method selects the tracker implementation: "auto", "dense",
	// or "sparse". Anything else is treated as "auto".
	Method string
}

// Validate checks Params against spec.md §7's configuration-error
// rules and returns a *ConfigError describing the first violation
// found, or nil if Params is usable.
func (p Params) Validate() error {
	if p.K < kmer.MinK || p.K > kmer.MaxK {
		return &ConfigError{Field: "K", Msg: "must be in [1,15]"}
	}
	if p.W < p.K {
		return &ConfigError{Field: "W", Msg: "must be >= K"}
	}
	if p.W-p.K+1 < 2 {
		return &ConfigError{Field: "W", Msg: "W-K+1 (Nwin) must be >= 2"}
	}
	if p.Theta < 0 || p.Theta > 1 {
		return &ConfigError{Field: "Theta", Msg: "must be in [0,1]"}
	}
	return nil
}

// Driver is the masking engine for one worker. It owns a single
// Tracker (spec.md's thread-local arena) that is reset and reused
// across every record the worker processes; a Driver must never be
// shared between goroutines.
type Driver struct {
	tbl   *kmer.Table
	tr    tracker.Tracker
	k     int
	theta float64
}

// NewDriver validates p and builds a Driver ready to mask records.
func NewDriver(p Params) (*Driver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tbl := kmer.NewTable(p.W, p.K)
	return &Driver{
		tbl:   tbl,
		tr:    tracker.New(tbl, p.Method),
		k:     p.K,
		theta: p.Theta,
	}, nil
}

// Mask runs the sliding-window entropy masking algorithm of spec.md
// §4.6 over rec, returning freshly allocated masked sequence and
// quality byte slices of the same length as the input. It never
// mutates rec's backing arrays.
//
// Mask has no recoverable error states for a shape-valid record
// (spec.md §7): the only error it can return is a *RecordShapeError
// when len(rec.Seq) != len(rec.Qual), which is a precondition
// violation rather than a property of the sequence content.
func (d *Driver) Mask(rec Record) (Masked, error) {
	if len(rec.Seq) != len(rec.Qual) {
		return Masked{}, &RecordShapeError{
			ID:      rec.ID,
			SeqLen:  len(rec.Seq),
			QualLen: len(rec.Qual),
		}
	}

	outSeq := make([]byte, len(rec.Seq))
	outQual := make([]byte, len(rec.Qual))
	copy(outSeq, rec.Seq)
	copy(outQual, rec.Qual)

	w := d.tbl.W
	k := d.k

	if len(rec.Seq) < w || w < k || !d.tbl.NormValid() {
		// Short-read pass-through (spec.md property 7) and the
		// Nwin<=1 open question (a), resolved as "never mask".
		return Masked{Seq: outSeq, Qual: outQual, FirstLowComplexityEntropy: -1}, nil
	}

	d.tr.Reset()
	tracker.InitWindow(d.tr, rec.Seq[0:w], k)

	lastL := len(rec.Seq) - w
	maskedUpto := 0

	windowsMasked := 0
	firstEntropy := -1.0

	for l := 0; l <= lastL; l++ {
		h := d.tr.Entropy()
		if h < d.theta {
			windowsMasked++
			if firstEntropy < 0 {
				firstEntropy = h
			}

			end := l + w
			if end > maskedUpto {
				start := l
				if maskedUpto > start {
					start = maskedUpto
				}
				for i := start; i < end; i++ {
					outSeq[i] = 'N'
					outQual[i] = '#'
				}
				maskedUpto = end
			}
		}

		if l < lastL {
			outCode, outOK := kmer.Encode(rec.Seq[l : l+k])
			d.tr.Remove(outCode, outOK)

			inStart := l + w - k + 1
			inCode, inOK := kmer.Encode(rec.Seq[inStart : inStart+k])
			d.tr.Add(inCode, inOK)
		}
	}

	return Masked{
		Seq:                       outSeq,
		Qual:                      outQual,
		WindowsMasked:             windowsMasked,
		FirstLowComplexityEntropy: firstEntropy,
	}, nil
}
