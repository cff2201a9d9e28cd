// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package entromaskutils holds the ambient, non-core concerns every
// entromask command binary shares: run configuration and per-run
// logging, in the same idiom as muscato's utils.Config/utils.ReadConfig
// and cmd/muscato's setupLog/makeTemp.
package entromaskutils

import (
	"encoding/json"
	"log"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/kshedden/entromask/mask"
)

// Config holds every parameter of one entromask run (spec.md §6).
type Config struct {

	// The FASTQ file containing the reads to mask. May be gzip
	// compressed; compression is detected from the file's leading
	// gzip magic bytes, and the file name is not consulted.
	ReadFileName string

	// The file path where the masked FASTQ is written. If it ends
	// in ".gz", the output is gzip compressed.
	ResultsFileName string

	// Optional snappy-compressed audit trail of per-record masking
	// summaries (see package audit). Left blank to disable.
	AuditFileName string

	// The window size W, in bases (spec.md §3).
	WindowWidth int

	// The k-mer length K, 1 <= K <= 15.
	KmerSize int

	// The normalized entropy threshold theta in [0,1]. A window
	// is masked when its entropy is strictly less than Threshold.
	Threshold float64

	// Tracker method: "auto" (default), "dense", or "sparse".
	Method string

	// Number of worker goroutines. 0 means hardware parallelism
	// (see package resource).
	Workers int

	// Number of records buffered per pipeline chunk.
	ChunkSize int

	// The directory where log files are written. By default the
	// logs are placed into entromask_logs/###### in the local
	// directory, where ###### is a generated run id.
	LogDir string

	// If true, capture a CPU profile of the run via
	// github.com/pkg/profile.
	CPUProfile bool
}

// ReadConfig loads a JSON configuration file, in the same
// panic-on-I/O-error idiom as utils.ReadConfig: configuration loading
// happens before any goroutine exists, so there is nothing to drain
// and failing fast is correct.
func ReadConfig(filename string) *Config {
	fid, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer fid.Close()
	dec := json.NewDecoder(fid)
	config := new(Config)
	if err := dec.Decode(config); err != nil {
		panic(err)
	}
	return config
}

// ToParams extracts the mask.Params this config describes.
func (c *Config) ToParams() mask.Params {
	return mask.Params{
		W:      c.WindowWidth,
		K:      c.KmerSize,
		Theta:  c.Threshold,
		Method: c.Method,
	}
}

// Validate checks the whole config against spec.md §7: the masking
// parameters via mask.Params.Validate, plus the worker/chunk-size
// rules that are this package's own responsibility.
func (c *Config) Validate() error {
	if err := c.ToParams().Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return &mask.ConfigError{Field: "Workers", Msg: "must not be negative"}
	}
	if c.ChunkSize <= 0 {
		return &mask.ConfigError{Field: "ChunkSize", Msg: "must be positive"}
	}
	return nil
}

// MakeLogDir creates a fresh, uniquely-named log directory under
// c.LogDir (or "entromask_logs" if unset), in the same
// uuid.NewUUID-named-subdirectory idiom cmd/muscato's makeTemp uses
// for its own temp/log directories, and updates c.LogDir to the
// created path.
func MakeLogDir(c *Config) error {
	id, err := uuid.NewUUID()
	if err != nil {
		return err
	}
	base := c.LogDir
	if base == "" {
		base = "entromask_logs"
	}
	dir := path.Join(base, id.String())
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	c.LogDir = dir
	return nil
}

// NewLogger creates the per-run log file inside c.LogDir, in the same
// log.New(fid, "", log.Ltime) idiom as muscato's setupLog functions.
func NewLogger(c *Config, name string) (*log.Logger, *os.File, error) {
	fid, err := os.Create(path.Join(c.LogDir, name))
	if err != nil {
		return nil, nil, err
	}
	return log.New(fid, "", log.Ltime), fid, nil
}
