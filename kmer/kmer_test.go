package kmer

import (
	"math"
	"testing"
)

func TestEncodeValid(t *testing.T) {
	code, ok := Encode([]byte("ACGT"))
	if !ok {
		t.Fatalf("expected valid encode")
	}
	// A=00 C=01 G=10 T=11 -> 00 01 10 11 = 0b00011011 = 27
	if code != 27 {
		t.Fatalf("got %d, want 27", code)
	}
}

func TestEncodeCaseInsensitive(t *testing.T) {
	c1, ok1 := Encode([]byte("acgt"))
	c2, ok2 := Encode([]byte("ACGT"))
	if !ok1 || !ok2 || c1 != c2 {
		t.Fatalf("case sensitivity mismatch: %v %v %v %v", c1, ok1, c2, ok2)
	}
}

func TestEncodeInvalid(t *testing.T) {
	for _, s := range []string{"ACGN", "ACG-", "ACGU", ""} {
		if s == "" {
			continue
		}
		if _, ok := Encode([]byte(s)); ok {
			t.Fatalf("expected invalid for %q", s)
		}
	}
}

func TestRollMatchesEncode(t *testing.T) {
	seq := []byte("ACGTACGTAC")
	k := 4
	prev, prevOK := Encode(seq[0:k])
	if !prevOK {
		t.Fatal("expected valid initial encode")
	}
	for i := 1; i+k <= len(seq); i++ {
		want, wantOK := Encode(seq[i : i+k])
		got, gotOK := Roll(prev, prevOK, k, seq[i-1], seq[i+k-1])
		if gotOK != wantOK || got != want {
			t.Fatalf("at %d: roll=(%d,%v) encode=(%d,%v)", i, got, gotOK, want, wantOK)
		}
		prev, prevOK = got, gotOK
	}
}

func TestRollInvalidPropagates(t *testing.T) {
	if _, ok := Roll(Invalid, false, 3, 'A', 'C'); ok {
		t.Fatal("expected invalid result from invalid predecessor")
	}
	if _, ok := Roll(0, true, 3, 'A', 'N'); ok {
		t.Fatal("expected invalid result from invalid incoming base")
	}
}

func TestNewTableEndpoints(t *testing.T) {
	// k=5, w=25 -> Nwin = 21
	tbl := NewTable(25, 5)
	if tbl.Nwin != 21 {
		t.Fatalf("got Nwin=%d, want 21", tbl.Nwin)
	}
	if !tbl.NormValid() {
		t.Fatal("expected NormValid for Nwin=21")
	}

	// All distinct: Nwin codes, each count 1.
	esum := float64(tbl.Nwin) * tbl.E[1]
	h := tbl.Entropy(esum)
	if math.Abs(h-1) > 1e-9 {
		t.Fatalf("all-distinct entropy = %v, want 1", h)
	}

	// All collapsed into one code of count Nwin.
	esum = tbl.E[tbl.Nwin]
	h = tbl.Entropy(esum)
	if math.Abs(h-0) > 1e-9 {
		t.Fatalf("collapsed entropy = %v, want 0", h)
	}
}

func TestNewTableNwinBoundary(t *testing.T) {
	tbl := NewTable(5, 5) // Nwin = 1
	if tbl.NormValid() {
		t.Fatal("expected NormValid false when Nwin<=1")
	}
}

func TestDinucRepeatEntropy(t *testing.T) {
	// "CT" x many, k=5, Nwin = W-k+1 = 21. Every offset's 5-mer is
	// either CTCTC (the 11 even offsets) or TCTCT (the 10 odd
	// offsets): two distinct codes with counts 11 and 10.
	w, k := 25, 5
	tbl := NewTable(w, k)
	nwin := tbl.Nwin

	counts := map[int32]int{}
	seq := make([]byte, w)
	for i := range seq {
		if i%2 == 0 {
			seq[i] = 'C'
		} else {
			seq[i] = 'T'
		}
	}
	for i := 0; i+k <= w; i++ {
		code, ok := Encode(seq[i : i+k])
		if !ok {
			t.Fatalf("unexpected invalid k-mer at %d", i)
		}
		counts[code]++
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 distinct 5-mers, got %d", len(counts))
	}

	var esum float64
	for _, c := range counts {
		esum += tbl.E[c]
	}
	h := tbl.Entropy(esum)
	p1, p2 := 11/float64(nwin), 10/float64(nwin)
	want := -(p1*math.Log2(p1) + p2*math.Log2(p2)) / math.Log2(float64(nwin))
	if math.Abs(h-want) > 1e-9 {
		t.Fatalf("H=%v, want %v", h, want)
	}
	if h >= 0.55 {
		t.Fatalf("expected H < 0.55 threshold, got %v", h)
	}
}
