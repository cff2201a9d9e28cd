// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package mask implements the per-record low-complexity masking
// engine (spec.md §4.6, the masking driver) on top of the kmer and
// tracker packages. It is the core: it knows nothing about FASTQ
// framing, gzip, CLI flags, or concurrency — those are collaborators
// (spec.md §1).
package mask

import "fmt"

// Record is the Record ABI (spec.md §4.8): an immutable, opaque
// identifier plus equal-length sequence and quality byte slices. The
// core never interprets ID or Qual; it only compares len(Seq) to
// len(Qual).
type Record struct {
	ID   []byte
	Seq  []byte
	Qual []byte
}

// Masked is the output of one masking run over a Record: freshly
// allocated sequence and quality byte slices of the same length as
// the input, with low-complexity windows overwritten per spec.md
// §4.6, plus a couple of summary statistics for callers (the audit
// trail) that want more than the masked bytes themselves.
type Masked struct {
	Seq  []byte
	Qual []byte

	// WindowsMasked is the number of window positions whose entropy
	// fell below Theta during this run, whether or not the window's
	// bytes had already been masked by an earlier overlapping window.
	WindowsMasked int

	// FirstLowComplexityEntropy is the entropy of the first window
	// position that triggered masking, or -1 if no window did.
	FirstLowComplexityEntropy float64
}

// ConfigError reports a fatal, pre-run configuration problem
// (spec.md §7): k out of range, W < k, Nwin < 2, theta outside
// [0,1], or a negative worker/chunk size.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("entromask: configuration error in %s: %s", e.Field, e.Msg)
}

// RecordShapeError reports that a record's sequence and quality
// lengths differ (spec.md §7). It is fatal for that record; package
// pipeline returns it to its caller and aborts the run.
type RecordShapeError struct {
	ID      []byte
	SeqLen  int
	QualLen int
}

func (e *RecordShapeError) Error() string {
	return fmt.Sprintf("entromask: record %q has sequence length %d but quality length %d",
		e.ID, e.SeqLen, e.QualLen)
}
