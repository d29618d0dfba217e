package dedup

import (
	"encoding/binary"
	"math"
)

// lshIndex is an incrementally-built similarity index. Signatures are split
// into bands; two signatures sharing any identical band become candidates,
// which are then verified against the estimated-Jaccard threshold. The index
// is scoped to a single deduplication pass and must not be shared.
type lshIndex struct {
	bands     int
	rows      int
	threshold float64
	tables    []map[string][]int
	sigs      []Signature
}

func newLSHIndex(threshold float64, numPerm int) *lshIndex {
	bands, rows := pickBands(threshold, numPerm)
	tables := make([]map[string][]int, bands)
	for i := range tables {
		tables[i] = make(map[string][]int)
	}
	return &lshIndex{
		bands:     bands,
		rows:      rows,
		threshold: threshold,
		tables:    tables,
	}
}

// pickBands chooses the band/row split whose S-curve midpoint (1/b)^(1/r)
// is closest to the similarity threshold.
func pickBands(threshold float64, numPerm int) (bands, rows int) {
	best := 1
	bestDiff := math.MaxFloat64
	for b := 1; b <= numPerm; b++ {
		if numPerm%b != 0 {
			continue
		}
		r := numPerm / b
		mid := math.Pow(1.0/float64(b), 1.0/float64(r))
		if diff := math.Abs(mid - threshold); diff < bestDiff {
			bestDiff = diff
			best = b
		}
	}
	return best, numPerm / best
}

// Query returns the insertion id of the earliest-inserted signature whose
// estimated Jaccard similarity reaches the threshold, or -1 when none does.
func (ix *lshIndex) Query(sig Signature) int {
	if len(sig) == 0 {
		return -1
	}
	checked := make(map[int]struct{})
	match := -1
	for band := 0; band < ix.bands; band++ {
		key := ix.bandKey(sig, band)
		for _, id := range ix.tables[band][key] {
			if _, done := checked[id]; done {
				continue
			}
			checked[id] = struct{}{}
			if sig.Jaccard(ix.sigs[id]) >= ix.threshold {
				if match == -1 || id < match {
					match = id
				}
			}
		}
	}
	return match
}

// Insert adds sig to the index and returns its insertion id. Empty
// signatures are not indexable and return -1.
func (ix *lshIndex) Insert(sig Signature) int {
	if len(sig) == 0 {
		return -1
	}
	id := len(ix.sigs)
	ix.sigs = append(ix.sigs, sig)
	for band := 0; band < ix.bands; band++ {
		key := ix.bandKey(sig, band)
		ix.tables[band][key] = append(ix.tables[band][key], id)
	}
	return id
}

func (ix *lshIndex) bandKey(sig Signature, band int) string {
	start := band * ix.rows
	buf := make([]byte, ix.rows*8)
	for i, v := range sig[start : start+ix.rows] {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return string(buf)
}
