package main

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kshedden/entromask/entromaskutils"
)

// fixture describes one golden end-to-end masking case, expressed in
// TOML rather than hand-built Go literals so new cases read like data,
// not code.
type fixture struct {
	Name      string
	Input     string
	Want      string
	Window    int
	Kmer      int
	Threshold float64
	Method    string
}

const fixturesTOML = `
[[case]]
name = "homopolymer fully masked"
window = 5
kmer = 3
threshold = 0.55
method = "auto"
input = "@r0\nAAAAAAAAAAAAAAAAAAAA\n+\nIIIIIIIIIIIIIIIIIIII\n"
want  = "@r0\nNNNNNNNNNNNNNNNNNNNN\n+\n####################\n"

[[case]]
name = "short read passes through"
window = 25
kmer = 5
threshold = 0.55
method = "auto"
input = "@r1\nACGTACGT\n+\nIIIIIIII\n"
want  = "@r1\nACGTACGT\n+\nIIIIIIII\n"

[[case]]
name = "zero threshold never masks"
window = 5
kmer = 3
threshold = 0.0
method = "auto"
input = "@r2\nAAAAAAAAAAAAAAAAAAAA\n+\nIIIIIIIIIIIIIIIIIIII\n"
want  = "@r2\nAAAAAAAAAAAAAAAAAAAA\n+\nIIIIIIIIIIIIIIIIIIII\n"
`

type fixtureFile struct {
	Case []fixture
}

func loadFixtures(t *testing.T) []fixture {
	t.Helper()
	var f fixtureFile
	if _, err := toml.Decode(fixturesTOML, &f); err != nil {
		t.Fatalf("decoding fixtures: %v", err)
	}
	return f.Case
}

func TestGoldenFixtures(t *testing.T) {
	for _, fx := range loadFixtures(t) {
		fx := fx
		t.Run(fx.Name, func(t *testing.T) {
			cfg := &entromaskutils.Config{
				WindowWidth: fx.Window,
				KmerSize:    fx.Kmer,
				Threshold:   fx.Threshold,
				Method:      fx.Method,
				Workers:     1,
				ChunkSize:   4,
				ReadFileName:    "in.fastq",
				ResultsFileName: "out.fastq",
			}

			var out bytes.Buffer
			var logbuf bytes.Buffer
			logger := log.New(&logbuf, "", 0)

			if _, err := run(cfg, strings.NewReader(fx.Input), false, &out, false, logger); err != nil {
				t.Fatalf("run: %v", err)
			}
			if out.String() != fx.Want {
				t.Fatalf("case %q: got %q, want %q", fx.Name, out.String(), fx.Want)
			}
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := &entromaskutils.Config{
		WindowWidth: 5,
		KmerSize:    0,
		Threshold:   0.5,
		Method:      "auto",
		Workers:     1,
		ChunkSize:   4,
	}
	var out bytes.Buffer
	var logbuf bytes.Buffer
	logger := log.New(&logbuf, "", 0)

	_, err := run(cfg, strings.NewReader("@r\nACGT\n+\nIIII\n"), false, &out, false, logger)
	if err == nil {
		t.Fatal("expected a config error for KmerSize=0")
	}
}

func TestRunWorkerCountDoesNotAffectOutput(t *testing.T) {
	input := "@r0\nACGTACGTACGTACGTACGTACGTACGTACGT\n+\nIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIII\n@r1\nAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n+\nIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIII\n"

	run1 := func(workers int) string {
		cfg := &entromaskutils.Config{
			WindowWidth: 10, KmerSize: 3, Threshold: 0.55, Method: "auto",
			Workers: workers, ChunkSize: 1,
		}
		var out bytes.Buffer
		logger := log.New(&bytes.Buffer{}, "", 0)
		if _, err := run(cfg, strings.NewReader(input), false, &out, false, logger); err != nil {
			t.Fatal(err)
		}
		return out.String()
	}

	if run1(1) != run1(4) {
		t.Fatal("worker count changed output")
	}
}
