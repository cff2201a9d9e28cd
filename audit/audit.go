// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package audit writes an optional, snappy-compressed trail of
// per-record masking summaries (spec.md §6's audit output), in the
// same snappy.NewBufferedWriter-over-a-background-drain idiom as
// muscato_screen's harvest goroutine.
package audit

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/kshedden/entromask/fastqio"
	"github.com/kshedden/entromask/mask"
)

// Summary is one record's masking outcome: its id, length, the
// number of 'N' bases in the masked sequence (including any N
// already present in the input), the number of window positions whose
// entropy triggered masking, and the entropy of the first such
// window (-1 if none did).
type Summary struct {
	ID                        string
	Length                    int
	Masked                    int
	WindowsMasked             int
	FirstLowComplexityEntropy float64
}

// Writer drains Summary values sent to its channel and writes them,
// tab-separated, to a snappy-compressed file, one line per record.
// Like harvest's hitchan, the channel is meant to be fed from the
// pipeline's record callback and drained by the single goroutine
// that NewWriter starts.
type Writer struct {
	ch     chan Summary
	done   chan error
	file   *os.File
	snappy *snappy.Writer
}

// NewWriter creates the audit file at path and starts the goroutine
// that drains Summary values pushed to its channel. The caller must
// call Close after the producer side is done sending.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	sw := snappy.NewBufferedWriter(f)

	w := &Writer{
		ch:     make(chan Summary, 1000),
		done:   make(chan error, 1),
		file:   f,
		snappy: sw,
	}
	go w.run()
	return w, nil
}

func (w *Writer) run() {
	bw := bufio.NewWriter(w.snappy)
	var firstErr error
	for s := range w.ch {
		if firstErr != nil {
			continue
		}
		_, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%g\n",
			s.ID, s.Length, s.Masked, s.WindowsMasked, s.FirstLowComplexityEntropy)
		if err != nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = bw.Flush()
	}
	w.done <- firstErr
}

// Push enqueues a summary for the record described by e and its
// masked output m. It must only be called before Close.
func (w *Writer) Push(e fastqio.Entry, m mask.Masked) {
	w.ch <- Summary{
		ID:                        string(e.Rec.ID),
		Length:                    len(m.Seq),
		Masked:                    countMasked(m.Seq),
		WindowsMasked:             m.WindowsMasked,
		FirstLowComplexityEntropy: m.FirstLowComplexityEntropy,
	}
}

// Close stops accepting Summary values, waits for the drain goroutine
// to finish writing, and closes the underlying snappy and file
// layers.
func (w *Writer) Close() error {
	close(w.ch)
	err := <-w.done
	if cerr := w.snappy.Close(); err == nil {
		err = cerr
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// countMasked counts the 'N' bases in seq.
func countMasked(seq []byte) int {
	var n int
	for _, b := range seq {
		if b == 'N' {
			n++
		}
	}
	return n
}

// Read opens a previously written audit file and returns a reader
// over its decompressed, tab-separated lines, for tools that want to inspect a run
// after the fact rather than generate one.
func Read(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &snappyReadCloser{r: snappy.NewReader(f), f: f}, nil
}

type snappyReadCloser struct {
	r *snappy.Reader
	f *os.File
}

func (s *snappyReadCloser) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *snappyReadCloser) Close() error                { return s.f.Close() }
