package tracker

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kshedden/entromask/kmer"
)

// driveAcrossRecord feeds every window slide of seq (width w, k-mer
// length k) into t, recording the entropy at each window start. It is
// a minimal stand-in for mask.Driver's slide loop, kept local to this
// package to avoid an import cycle (mask depends on tracker, not vice
// versa).
func driveAcrossRecord(t Tracker, tbl *kmer.Table, seq []byte) []float64 {
	k := tbl.K
	w := tbl.W

	InitWindow(t, seq[0:w], k)

	var hs []float64
	for l := 0; l+w <= len(seq); l++ {
		hs = append(hs, t.Entropy())

		if l+w < len(seq) {
			outCode, outOK := kmer.Encode(seq[l : l+k])
			t.Remove(outCode, outOK)
			inStart := l + w - k + 1
			inCode, inOK := kmer.Encode(seq[inStart : inStart+k])
			t.Add(inCode, inOK)
		}
	}
	return hs
}

func randSeq(rng *rand.Rand, n int) []byte {
	alpha := []byte("ACGT")
	s := make([]byte, n)
	for i := range s {
		s[i] = alpha[rng.Intn(4)]
	}
	return s
}

func TestDenseSparseEquivalenceRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.Intn(8) // 1..8, straddles KDense boundary
		w := k + rng.Intn(4*k)
		if w < k {
			w = k
		}
		tbl := kmer.NewTable(w, k)
		if !tbl.NormValid() {
			continue
		}

		n := w + rng.Intn(3*w+1)
		seq := randSeq(rng, n)
		// Sprinkle in some invalid bases.
		for i := range seq {
			if rng.Intn(10) == 0 {
				seq[i] = 'N'
			}
		}

		dense := NewDense(tbl)
		sparse := NewSparse(tbl)

		hd := driveAcrossRecord(dense, tbl, seq)
		hs := driveAcrossRecord(sparse, tbl, seq)

		if len(hd) != len(hs) {
			t.Fatalf("trial %d: length mismatch %d vs %d", trial, len(hd), len(hs))
		}
		for i := range hd {
			if math.Abs(hd[i]-hs[i]) > 1e-9 {
				t.Fatalf("trial %d window %d: dense=%v sparse=%v (k=%d w=%d)", trial, i, hd[i], hs[i], k, w)
			}
		}
	}
}

func TestDenseSparseReuseAcrossRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tbl := kmer.NewTable(25, 5)
	dense := NewDense(tbl)
	sparse := NewSparse(tbl)

	for rec := 0; rec < 20; rec++ {
		seq := randSeq(rng, 25+rng.Intn(50))
		dense.Reset()
		sparse.Reset()
		hd := driveAcrossRecord(dense, tbl, seq)
		hs := driveAcrossRecord(sparse, tbl, seq)
		for i := range hd {
			if math.Abs(hd[i]-hs[i]) > 1e-9 {
				t.Fatalf("record %d window %d: dense=%v sparse=%v", rec, i, hd[i], hs[i])
			}
		}
	}
}

func TestSelect(t *testing.T) {
	if !Select(5, "auto") {
		t.Fatal("k=5 should select dense under auto")
	}
	if Select(12, "auto") {
		t.Fatal("k=12 should select sparse under auto")
	}
	if !Select(12, "dense") {
		t.Fatal("explicit dense override should win")
	}
	if Select(3, "sparse") {
		t.Fatal("explicit sparse override should win")
	}
}

// checkHistogramInvariant verifies spec.md's count-of-counts
// definition directly: cc[j] counts codes whose current count is j,
// so summing cc[1:] must equal the number of distinct codes, and
// summing j*cc[j] must equal the number of valid k-mer slots in the
// window.
func checkHistogramInvariant(t *testing.T, tr Tracker, nwin, unique, invalid int) {
	t.Helper()
	cc := tr.Histogram()

	var sumCC, weighted int
	for j := 1; j < len(cc); j++ {
		sumCC += int(cc[j])
		weighted += j * int(cc[j])
	}
	if sumCC != unique {
		t.Fatalf("sum(cc[1:]) = %d, want unique = %d", sumCC, unique)
	}
	if weighted != nwin-invalid {
		t.Fatalf("sum(j*cc[j]) = %d, want Nwin-invalid = %d", weighted, nwin-invalid)
	}
}

func TestHistogramInvariantAcrossSlides(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tbl := kmer.NewTable(20, 4)

	for _, method := range []string{"dense", "sparse"} {
		tr := New(tbl, method)
		seq := randSeq(rng, 60)
		for i := range seq {
			if rng.Intn(8) == 0 {
				seq[i] = 'N'
			}
		}

		k := tbl.K
		w := tbl.W
		InitWindow(tr, seq[0:w], k)

		for l := 0; l+w <= len(seq); l++ {
			checkHistogramInvariant(t, tr, tbl.Nwin, tr.Unique(), tr.InvalidKmers())

			if l+w < len(seq) {
				outCode, outOK := kmer.Encode(seq[l : l+k])
				tr.Remove(outCode, outOK)
				inStart := l + w - k + 1
				inCode, inOK := kmer.Encode(seq[inStart : inStart+k])
				tr.Add(inCode, inOK)
			}
		}
	}
}

func TestHomopolymerCollapsesToZero(t *testing.T) {
	tbl := kmer.NewTable(25, 5)
	for _, method := range []string{"dense", "sparse"} {
		tr := New(tbl, method)
		seq := make([]byte, 40)
		for i := range seq {
			seq[i] = 'A'
		}
		hs := driveAcrossRecord(tr, tbl, seq)
		for i, h := range hs {
			if h != 0 {
				t.Fatalf("%s: window %d entropy = %v, want 0", method, i, h)
			}
		}
	}
}
