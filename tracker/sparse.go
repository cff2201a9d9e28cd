// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

package tracker

import "github.com/kshedden/entromask/kmer"

// Sparse is a map-indexed k-mer histogram, used when 4^k would waste
// memory or cache relative to the number of codes actually seen in a
// window (spec.md §4.4). It satisfies the same Tracker contract as
// Dense and must produce byte-identical masking decisions.
type Sparse struct {
	tbl *kmer.Table

	count map[int32]uint16
	cc    []int32

	unique  int
	esum    float64
	invalid int
}

// NewSparse allocates a Sparse tracker for tbl. The map starts empty
// and grows to the number of distinct codes observed in a window,
// bounded by tbl.Nwin.
func NewSparse(tbl *kmer.Table) *Sparse {
	return &Sparse{
		tbl:   tbl,
		count: make(map[int32]uint16, tbl.Nwin),
		cc:    make([]int32, tbl.Nwin+2),
	}
}

func (s *Sparse) Add(code int32, valid bool) {
	if !valid {
		s.invalid++
		return
	}

	c := s.count[code]
	if c == 0 {
		s.unique++
	} else {
		s.cc[c]--
	}
	s.count[code] = c + 1
	s.cc[c+1]++
	s.esum += s.tbl.E[c+1] - s.tbl.E[c]
}

func (s *Sparse) Remove(code int32, valid bool) {
	if !valid {
		s.invalid--
		return
	}

	c := s.count[code]
	s.cc[c]--
	if c-1 == 0 {
		delete(s.count, code)
		s.unique--
	} else {
		s.count[code] = c - 1
		s.cc[c-1]++
	}
	s.esum += s.tbl.E[c-1] - s.tbl.E[c]
}

func (s *Sparse) Entropy() float64 {
	return s.tbl.Entropy(s.esum)
}

func (s *Sparse) Unique() int { return s.unique }

func (s *Sparse) InvalidKmers() int { return s.invalid }

func (s *Sparse) Histogram() []int32 { return s.cc }

func (s *Sparse) Reset() {
	clear(s.count)
	for j := range s.cc {
		s.cc[j] = 0
	}
	s.unique = 0
	s.esum = 0
	s.invalid = 0
}
