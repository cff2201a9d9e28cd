// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// entromask masks low-complexity regions of FASTQ reads by sliding a
// fixed-width window across each read and replacing windows whose
// k-mer Shannon entropy falls below a threshold with 'N'/'#'.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kshedden/entromask/audit"
	"github.com/kshedden/entromask/entromaskutils"
	"github.com/kshedden/entromask/fastqio"
	"github.com/kshedden/entromask/mask"
	"github.com/kshedden/entromask/pipeline"
	"github.com/kshedden/entromask/resource"
	"github.com/pkg/profile"
)

var config *entromaskutils.Config

// handleArgs builds config from an optional JSON config file
// overlaid with any command line flags given, in the same
// file-then-flags precedence cmd/muscato's handleArgs uses.
func handleArgs() {
	ConfigFileName := flag.String("ConfigFileName", "", "JSON file containing configuration parameters")
	ReadFileName := flag.String("ReadFileName", "", "Sequencing read file (FASTQ format, optionally gzipped)")
	ResultsFileName := flag.String("ResultsFileName", "", "File name for the masked output (gzipped if it ends in .gz)")
	AuditFileName := flag.String("AuditFileName", "", "Optional snappy-compressed masking audit trail")
	WindowWidth := flag.Int("WindowWidth", 0, "Width of each sliding window, in bases")
	KmerSize := flag.Int("KmerSize", 0, "K-mer length used for the entropy calculation")
	Threshold := flag.Float64("Threshold", 0, "Windows with entropy below this value are masked")
	Method := flag.String("Method", "", "Tracker method: auto, dense, or sparse")
	Workers := flag.Int("Workers", 0, "Number of concurrent masking workers (0 means use all CPUs)")
	ChunkSize := flag.Int("ChunkSize", 0, "Number of records processed per pipeline chunk")
	LogDir := flag.String("LogDir", "", "Directory under which a per-run log subdirectory is created")
	CPUProfile := flag.Bool("CPUProfile", false, "Capture a CPU profile of the run")

	flag.Parse()

	if *ConfigFileName != "" {
		config = entromaskutils.ReadConfig(*ConfigFileName)
	} else {
		config = new(entromaskutils.Config)
	}

	if *ReadFileName != "" {
		config.ReadFileName = *ReadFileName
	}
	if *ResultsFileName != "" {
		config.ResultsFileName = *ResultsFileName
	}
	if *AuditFileName != "" {
		config.AuditFileName = *AuditFileName
	}
	if *WindowWidth != 0 {
		config.WindowWidth = *WindowWidth
	}
	if *KmerSize != 0 {
		config.KmerSize = *KmerSize
	}
	if *Threshold != 0 {
		config.Threshold = *Threshold
	}
	if *Method != "" {
		config.Method = *Method
	}
	if *Workers != 0 {
		config.Workers = *Workers
	}
	if *ChunkSize != 0 {
		config.ChunkSize = *ChunkSize
	}
	if *LogDir != "" {
		config.LogDir = *LogDir
	}
	if *CPUProfile {
		config.CPUProfile = true
	}

	if config.ChunkSize == 0 {
		config.ChunkSize = 256
	}
	if config.Method == "" {
		config.Method = "auto"
	}
}

// checkArgs verifies the required fields are present before any
// directories or files are created, in the same fail-fast style as
// cmd/muscato's checkArgs.
func checkArgs() {
	if config.ReadFileName == "" {
		os.Stderr.WriteString("\nReadFileName not provided, run 'entromask --help' for more information.\n\n")
		os.Exit(1)
	}
	if config.ResultsFileName == "" {
		os.Stderr.WriteString("\nResultsFileName not provided, run 'entromask --help' for more information.\n\n")
		os.Exit(1)
	}
}

func openInput(name string) (io.ReadCloser, bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, false, err
	}
	magic := make([]byte, 2)
	n, _ := io.ReadFull(f, magic)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, false, err
	}
	gzipped := n == 2 && fastqio.LooksGzipped(magic)
	return f, gzipped, nil
}

func openOutput(name string) (io.WriteCloser, bool, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, false, err
	}
	return f, len(name) > 3 && name[len(name)-3:] == ".gz", nil
}

// run executes one masking pass from in to out according to cfg,
// logging progress via logger, and returns the final pipeline
// statistics. It is factored out of main so tests can drive it
// against in-memory readers and writers.
func run(cfg *entromaskutils.Config, in io.Reader, inGzipped bool, out io.Writer, outGzipped bool, logger *log.Logger) (pipeline.Stats, error) {
	if err := cfg.Validate(); err != nil {
		return pipeline.Stats{}, err
	}

	workers := resource.ResolveWorkers(cfg.Workers)
	resource.LogHostInfo(logger, workers)
	resource.RaiseNoFile(logger)

	r, err := fastqio.NewReader(in, inGzipped)
	if err != nil {
		return pipeline.Stats{}, err
	}
	w := fastqio.NewWriter(out, outGzipped)

	var auditWriter *audit.Writer
	var onRecord func(fastqio.Entry, mask.Masked)
	if cfg.AuditFileName != "" {
		auditWriter, err = audit.NewWriter(cfg.AuditFileName)
		if err != nil {
			return pipeline.Stats{}, err
		}
		onRecord = auditWriter.Push
	}

	logger.Printf("Starting mask...")
	stats, runErr := pipeline.Run(r, w, cfg.ToParams(), pipeline.Options{
		Workers:   workers,
		ChunkSize: cfg.ChunkSize,
	}, onRecord)

	if auditWriter != nil {
		if cerr := auditWriter.Close(); cerr != nil && runErr == nil {
			runErr = cerr
		}
	}
	if closeErr := w.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	logger.Printf("Finished mask: %d records, %d masked", stats.Records, stats.Masked)
	return stats, runErr
}

func main() {
	handleArgs()
	checkArgs()

	if err := entromaskutils.MakeLogDir(config); err != nil {
		fmt.Fprintf(os.Stderr, "could not create log directory: %v\n", err)
		os.Exit(1)
	}
	logger, logFile, err := entromaskutils.NewLogger(config, "entromask.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if config.CPUProfile {
		p := profile.Start(profile.ProfilePath(config.LogDir))
		defer p.Stop()
	}

	in, inGzipped, err := openInput(config.ReadFileName)
	if err != nil {
		logger.Fatalf("opening %s: %v", config.ReadFileName, err)
	}
	defer in.Close()

	out, outGzipped, err := openOutput(config.ResultsFileName)
	if err != nil {
		logger.Fatalf("creating %s: %v", config.ResultsFileName, err)
	}
	defer out.Close()

	if _, err := run(config, in, inGzipped, out, outGzipped, logger); err != nil {
		logger.Fatalf("run failed: %v", err)
	}
}
