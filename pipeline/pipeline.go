// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package pipeline drives the bounded-memory, order-preserving,
// concurrent masking pass described in spec.md §5. It reads FASTQ
// records in fixed-size chunks, masks the records of each chunk
// across a bounded pool of worker goroutines, and writes the results
// back out in their original order, in the same semaphore-channel and
// single-writer idiom as muscato_screen's search/harvest pair.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/kshedden/entromask/fastqio"
	"github.com/kshedden/entromask/mask"
)

// Options configures one pipeline run.
type Options struct {
	// Workers is the number of concurrent masking goroutines. Must
	// be >= 1.
	Workers int

	// ChunkSize is the number of records buffered and processed as
	// one unit. Must be >= 1.
	ChunkSize int
}

// Stats reports what one run processed, for a caller that wants a
// final summary line without hooking OnRecord itself.
type Stats struct {
	Records int
	Masked  int
}

// Run reads every record from r, masks it according to p, and writes
// the result to w, in the original record order. If onRecord is
// non-nil, it is called once per record, in order, after the record
// has been masked but before the next chunk begins processing; it is
// the audit trail's hook (package audit) and is never called
// concurrently.
//
// Run drains the driver pool per worker rather than per record
// (spec.md's thread-local tracker arena), reusing each Driver's
// Tracker across every record the worker ever handles, in the same
// buffer-reuse idiom as muscato_confirm's getbuf/putbuf pool.
//
// A parse error from r or a write error to w aborts the run and is
// returned; a record-shape error from the Driver is likewise fatal,
// since it signals the input violates the FASTQ ABI the core assumes.
// Property: running with Workers=1, ChunkSize=1 produces byte-identical
// output to any other Workers/ChunkSize combination, since ordering is
// always restored before writing.
func Run(r *fastqio.Reader, w *fastqio.Writer, p mask.Params, opts Options, onRecord func(fastqio.Entry, mask.Masked)) (Stats, error) {
	if opts.Workers < 1 {
		return Stats{}, fmt.Errorf("pipeline: Workers must be >= 1, got %d", opts.Workers)
	}
	if opts.ChunkSize < 1 {
		return Stats{}, fmt.Errorf("pipeline: ChunkSize must be >= 1, got %d", opts.ChunkSize)
	}

	drivers := make(chan *mask.Driver, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		d, err := mask.NewDriver(p)
		if err != nil {
			return Stats{}, err
		}
		drivers <- d
	}

	var stats Stats

	for {
		chunk, readErr := readChunk(r, opts.ChunkSize)
		if len(chunk) > 0 {
			results, maskErr := maskChunk(chunk, drivers, opts.Workers)
			if maskErr != nil {
				return stats, maskErr
			}
			for i, res := range results {
				if err := w.WriteRecord(chunk[i].Rec.ID, chunk[i].Sep, res.Seq, res.Qual); err != nil {
					return stats, fmt.Errorf("pipeline: writing record: %w", err)
				}
				stats.Records++
				if containsMask(res.Seq) {
					stats.Masked++
				}
				if onRecord != nil {
					onRecord(chunk[i], res)
				}
			}
		}
		if readErr != nil {
			return stats, readErr
		}
		if len(chunk) < opts.ChunkSize {
			// Reader reached a clean EOF mid-chunk (or returned an
			// empty chunk): nothing more to read.
			return stats, nil
		}
	}
}

// readChunk fills a chunk of up to n entries from r. It returns a
// short (possibly empty) chunk and a nil error at a clean EOF, or
// whatever chunk was read so far plus a non-nil error on malformed
// input.
func readChunk(r *fastqio.Reader, n int) ([]fastqio.Entry, error) {
	chunk := make([]fastqio.Entry, 0, n)
	for i := 0; i < n; i++ {
		e, ok, err := r.Next()
		if err != nil {
			return chunk, err
		}
		if !ok {
			return chunk, nil
		}
		chunk = append(chunk, e)
	}
	return chunk, nil
}

// maskChunk masks every entry of chunk, bounded by the worker
// semaphore implicit in the size of drivers, and returns the masked
// results in the same order as chunk.
func maskChunk(chunk []fastqio.Entry, drivers chan *mask.Driver, workers int) ([]mask.Masked, error) {
	results := make([]mask.Masked, len(chunk))

	limit := make(chan bool, workers)
	errc := make(chan error, 1)
	var wg sync.WaitGroup

	for i, e := range chunk {
		limit <- true
		wg.Add(1)
		go func(i int, rec mask.Record) {
			defer wg.Done()
			defer func() { <-limit }()

			d := <-drivers
			m, err := d.Mask(rec)
			drivers <- d

			if err != nil {
				select {
				case errc <- err:
				default:
				}
				return
			}
			results[i] = m
		}(i, e.Rec)
	}

	wg.Wait()

	select {
	case err := <-errc:
		return nil, err
	default:
	}
	return results, nil
}

// containsMask reports whether seq contains at least one 'N', whether
// written by masking or already present in the input.
func containsMask(seq []byte) bool {
	for _, b := range seq {
		if b == 'N' {
			return true
		}
	}
	return false
}
