// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

package tracker

import (
	"github.com/golang-collections/go-datastructures/bitarray"
	"github.com/kshedden/entromask/kmer"
)

// Dense is an array-indexed k-mer histogram, suitable when 4^k cells
// fit comfortably in cache (spec.md §4.3). The count array and
// count-of-counts array are allocated once per (W,k) pair and reused
// across records by a single worker goroutine.
//
// Zeroing the count array between records would cost O(4^k) per
// record regardless of how few codes were actually populated. To
// avoid that, Dense keeps a "dirty" bitarray.BitArray recording which
// codes were touched during the current record, the same
// bitarray.BitArray type muscato_screen.go uses to back its Bloom
// filters, repurposed here as a compact "seen" set: Reset() walks
// only the codes on the dirty list rather than the whole 4^k array.
type Dense struct {
	tbl *kmer.Table

	count []uint16
	cc    []int32

	dirty     bitarray.BitArray
	dirtyList []int32

	unique  int
	esum    float64
	invalid int
}

// NewDense allocates a Dense tracker sized for tbl. The allocation
// happens once; the returned tracker is meant to be reused across
// many records via Reset.
func NewDense(tbl *kmer.Table) *Dense {
	ncodes := uint64(1) << uint(2*tbl.K)
	return &Dense{
		tbl:   tbl,
		count: make([]uint16, ncodes),
		cc:    make([]int32, tbl.Nwin+2),
		dirty: bitarray.NewBitArray(ncodes),
	}
}

func (d *Dense) Add(code int32, valid bool) {
	if !valid {
		d.invalid++
		return
	}

	c := d.count[code]
	if c == 0 {
		d.unique++
		if set, err := d.dirty.GetBit(uint64(code)); err == nil && !set {
			if err := d.dirty.SetBit(uint64(code)); err != nil {
				panic(err)
			}
			d.dirtyList = append(d.dirtyList, code)
		}
	} else {
		d.cc[c]--
	}
	d.count[code] = c + 1
	d.cc[c+1]++
	d.esum += d.tbl.E[c+1] - d.tbl.E[c]
}

func (d *Dense) Remove(code int32, valid bool) {
	if !valid {
		d.invalid--
		return
	}

	c := d.count[code]
	d.cc[c]--
	d.count[code] = c - 1
	if c-1 == 0 {
		d.unique--
	} else {
		d.cc[c-1]++
	}
	d.esum += d.tbl.E[c-1] - d.tbl.E[c]
}

func (d *Dense) Entropy() float64 {
	return d.tbl.Entropy(d.esum)
}

func (d *Dense) Unique() int { return d.unique }

func (d *Dense) InvalidKmers() int { return d.invalid }

func (d *Dense) Histogram() []int32 { return d.cc }

func (d *Dense) Reset() {
	for _, code := range d.dirtyList {
		d.count[code] = 0
		if err := d.dirty.ClearBit(uint64(code)); err != nil {
			panic(err)
		}
	}
	d.dirtyList = d.dirtyList[:0]

	for j := range d.cc {
		d.cc[j] = 0
	}

	d.unique = 0
	d.esum = 0
	d.invalid = 0
}
