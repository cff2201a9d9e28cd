// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package fastqio is the FASTQ parsing/writing collaborator described
// in spec.md §1: it owns file framing, gzip transparency, and the
// four-line record convention, and hands the masking core
// (package mask) nothing but Record values. It generalizes
// utils.ReadInSeq (which only tracked name+sequence, for the
// dinucleotide screen) to the full four-line record muscato never
// needed to round-trip.
package fastqio

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/kshedden/entromask/mask"
)

// ParseError reports malformed FASTQ framing (spec.md §7,
// parser-surfaced error): a missing sigil, a truncated record, or a
// sequence/quality length mismatch discovered at parse time.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fastqio: line %d: %s", e.Line, e.Msg)
}

const scannerBufCap = 1024 * 1024

// Reader reads FASTQ records one at a time, four lines per record, in
// the same bufio.Scanner-with-an-enlarged-buffer style as
// utils.ReadInSeq.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewReader wraps r. If gzipped is true, r is transparently
// decompressed with compress/gzip before scanning, matching the
// gzip handling muscato_prep_targets applies to its own inputs.
func NewReader(r io.Reader, gzipped bool) (*Reader, error) {
	if gzipped {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("fastqio: opening gzip stream: %w", err)
		}
		r = gr
	}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, scannerBufCap)
	return &Reader{scanner: scanner}, nil
}

// Entry is one parsed FASTQ record plus the raw separator line
// (the 3rd of the four lines, including its leading '+'), which is
// outside the masking core's Record ABI (spec.md §4.8) but must be
// preserved byte-for-byte when the record is written back out.
type Entry struct {
	Rec mask.Record
	Sep []byte
}

// Next reads the next record. It returns (entry, true, nil) on
// success, (zero, false, nil) at a clean EOF, and (zero, false, err)
// on malformed framing or an I/O error from the underlying reader.
func (r *Reader) Next() (Entry, bool, error) {
	var lines [4][]byte

	for i := 0; i < 4; i++ {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Entry{}, false, err
			}
			if i == 0 {
				return Entry{}, false, nil
			}
			return Entry{}, false, &ParseError{
				Line: r.line + 1,
				Msg:  "truncated record at end of file",
			}
		}
		r.line++
		// Scanner reuses its internal buffer; copy out what we
		// keep.
		b := r.scanner.Bytes()
		lines[i] = append([]byte(nil), b...)
	}

	if len(lines[0]) == 0 || lines[0][0] != '@' {
		return Entry{}, false, &ParseError{Line: r.line - 3, Msg: "identifier line does not start with '@'"}
	}
	if len(lines[2]) == 0 || lines[2][0] != '+' {
		return Entry{}, false, &ParseError{Line: r.line - 1, Msg: "separator line does not start with '+'"}
	}
	if len(lines[1]) != len(lines[3]) {
		return Entry{}, false, &ParseError{
			Line: r.line - 2,
			Msg:  fmt.Sprintf("sequence length %d does not match quality length %d", len(lines[1]), len(lines[3])),
		}
	}

	return Entry{
		Rec: mask.Record{
			ID:   lines[0][1:],
			Seq:  lines[1],
			Qual: lines[3],
		},
		Sep: lines[2],
	}, true, nil
}

// Writer writes masked records back out in FASTQ's four-line
// convention, preserving the original separator line content
// byte-for-byte.
type Writer struct {
	w   *bufio.Writer
	gzw *gzip.Writer
}

// NewWriter wraps w. If gzipped is true, output is compressed with
// compress/gzip; the caller must call Close to flush both layers.
func NewWriter(w io.Writer, gzipped bool) *Writer {
	if gzipped {
		gzw := gzip.NewWriter(w)
		return &Writer{w: bufio.NewWriter(gzw), gzw: gzw}
	}
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteRecord writes one record: the original ID and separator line
// (sep, the original 3rd line including its leading '+'), and the
// masked sequence/quality.
func (w *Writer) WriteRecord(id, sep, seq, qual []byte) error {
	if _, err := w.w.Write([]byte{'@'}); err != nil {
		return err
	}
	if _, err := w.w.Write(id); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := w.w.Write(seq); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := w.w.Write(sep); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := w.w.Write(qual); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes any buffered output and the gzip layer, if present.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.gzw != nil {
		return w.gzw.Close()
	}
	return nil
}

// LooksGzipped sniffs the first two bytes of b for the gzip magic
// number, for callers that want to auto-detect compression rather
// than relying on a filename suffix.
func LooksGzipped(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0x1f, 0x8b})
}
