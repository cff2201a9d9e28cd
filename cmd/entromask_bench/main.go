// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// entromask_bench generates synthetic FASTQ read sets and reports
// masking throughput and dense/sparse tracker equivalence, in the
// same role muscato_gendat plays for muscato: a small standalone tool
// that manufactures test data rather than processing real input.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/kshedden/entromask/fastqio"
	"github.com/kshedden/entromask/mask"
	"github.com/kshedden/entromask/pipeline"
)

var (
	numRead   int
	readLen   int
	class     string
	window    int
	kmer      int
	threshold float64
	workers   int
	chunkSize int
	outPath   string
)

// readClass is a synthetic sequence generator named by its
// complexity profile.
type readClass func(rng *rand.Rand, n int) []byte

var classes = map[string]readClass{
	"uniform":   genUniform,
	"homopolymer": genHomopolymer,
	"tandem":    genTandem,
}

func genUniform(rng *rand.Rand, n int) []byte {
	const bases = "ACGT"
	out := make([]byte, n)
	for i := range out {
		out[i] = bases[rng.Intn(4)]
	}
	return out
}

func genHomopolymer(rng *rand.Rand, n int) []byte {
	const bases = "ACGT"
	b := bases[rng.Intn(4)]
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func genTandem(rng *rand.Rand, n int) []byte {
	const bases = "ACGT"
	unit := []byte{bases[rng.Intn(4)], bases[rng.Intn(4)]}
	out := make([]byte, n)
	for i := range out {
		out[i] = unit[i%len(unit)]
	}
	return out
}

// generate writes n synthetic FASTQ records of the given length, drawn
// from gen, to w.
func generate(w *fastqio.Writer, gen readClass, n, length int) error {
	rng := rand.New(rand.NewSource(1))
	qual := bytes.Repeat([]byte{'I'}, length)
	for i := 0; i < n; i++ {
		id := []byte(fmt.Sprintf("synth_%d", i))
		seq := gen(rng, length)
		if err := w.WriteRecord(id, []byte("+"), seq, qual); err != nil {
			return err
		}
	}
	return nil
}

// throughput runs one masking pass over data and returns the pipeline
// statistics and the elapsed wall time, from which main reports the
// records processed per second, in the same spirit as muscato_gendat's bare
// "generate then let the caller time it" design: the timing itself
// lives in this small driver, not in the library code it measures.
func throughput(data []byte, p mask.Params, opts pipeline.Options) (pipeline.Stats, time.Duration, error) {
	r, err := fastqio.NewReader(bytes.NewReader(data), false)
	if err != nil {
		return pipeline.Stats{}, 0, err
	}
	var out bytes.Buffer
	w := fastqio.NewWriter(&out, false)

	start := time.Now()
	stats, err := pipeline.Run(r, w, p, opts, nil)
	elapsed := time.Since(start)
	if err != nil {
		return stats, elapsed, err
	}
	return stats, elapsed, w.Close()
}

func main() {
	flag.IntVar(&numRead, "NumRead", 10000, "Number of synthetic reads to generate")
	flag.IntVar(&readLen, "ReadLen", 150, "Length of each synthetic read")
	flag.StringVar(&class, "Class", "uniform", "Read class: uniform, homopolymer, or tandem")
	flag.IntVar(&window, "WindowWidth", 25, "Window width")
	flag.IntVar(&kmer, "KmerSize", 5, "K-mer size")
	flag.Float64Var(&threshold, "Threshold", 0.55, "Entropy threshold")
	flag.IntVar(&workers, "Workers", 4, "Number of masking workers")
	flag.IntVar(&chunkSize, "ChunkSize", 256, "Pipeline chunk size")
	flag.StringVar(&outPath, "Out", "", "Optional path to also write the generated FASTQ")
	flag.Parse()

	gen, ok := classes[class]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown Class %q\n", class)
		os.Exit(1)
	}

	var buf bytes.Buffer
	w := fastqio.NewWriter(&buf, false)
	if err := generate(w, gen, numRead, readLen); err != nil {
		fmt.Fprintf(os.Stderr, "generating reads: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "flushing reads: %v\n", err)
		os.Exit(1)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "writing %s: %v\n", outPath, err)
			os.Exit(1)
		}
	}

	p := mask.Params{W: window, K: kmer, Theta: threshold, Method: "auto"}
	opts := pipeline.Options{Workers: workers, ChunkSize: chunkSize}

	denseStats, denseTime, err := throughput(buf.Bytes(), mask.Params{W: window, K: kmer, Theta: threshold, Method: "dense"}, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dense run: %v\n", err)
		os.Exit(1)
	}
	sparseStats, sparseTime, err := throughput(buf.Bytes(), mask.Params{W: window, K: kmer, Theta: threshold, Method: "sparse"}, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparse run: %v\n", err)
		os.Exit(1)
	}

	autoStats, autoTime, err := throughput(buf.Bytes(), p, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auto run: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("class=%s reads=%d readLen=%d window=%d kmer=%d threshold=%.3f workers=%d\n",
		class, numRead, readLen, window, kmer, threshold, workers)
	fmt.Printf("dense:  %d records, %d masked, %v (%.0f rec/s)\n",
		denseStats.Records, denseStats.Masked, denseTime, float64(denseStats.Records)/denseTime.Seconds())
	fmt.Printf("sparse: %d records, %d masked, %v (%.0f rec/s)\n",
		sparseStats.Records, sparseStats.Masked, sparseTime, float64(sparseStats.Records)/sparseTime.Seconds())
	fmt.Printf("auto:   %d records, %d masked, %v (%.0f rec/s)\n",
		autoStats.Records, autoStats.Masked, autoTime, float64(autoStats.Records)/autoTime.Seconds())

	if denseStats.Masked != sparseStats.Masked {
		fmt.Fprintf(os.Stderr, "WARNING: dense and sparse trackers disagree on masked-record count (%d vs %d)\n",
			denseStats.Masked, sparseStats.Masked)
		os.Exit(1)
	}
}
