// Package dedup collapses near-duplicate articles using MinHash signatures
// and an LSH banding index over 3-word shingles of normalized content.
package dedup

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

const (
	// DefaultNumPerm is the default signature width. More permutations give
	// a more accurate Jaccard estimate at a linear cost in signing time.
	DefaultNumPerm = 128

	// shingleSize is the word count per shingle.
	shingleSize = 3

	// signerSeed fixes the permutation family so signatures are stable
	// across runs and processes.
	signerSeed = 0x5eed
)

// Signature is a fixed-size MinHash sketch of a shingle set. A nil signature
// means the source text had no shingles; it is never similar to anything.
type Signature []uint64

// Signer produces MinHash signatures using a deterministic family of hash
// permutations.
type Signer struct {
	seeds []uint64
}

// NewSigner creates a signer with numPerm permutations. Values <= 0 fall
// back to DefaultNumPerm.
func NewSigner(numPerm int) *Signer {
	if numPerm <= 0 {
		numPerm = DefaultNumPerm
	}
	rng := rand.New(rand.NewSource(signerSeed))
	seeds := make([]uint64, numPerm)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return &Signer{seeds: seeds}
}

// NumPerm returns the signature width.
func (s *Signer) NumPerm() int { return len(s.seeds) }

// Sign shingles the normalized text and returns its MinHash signature.
// Text with fewer than shingleSize words yields a nil signature.
func (s *Signer) Sign(text string) Signature {
	shingles := Shingles(text, shingleSize)
	if len(shingles) == 0 {
		return nil
	}
	sig := make(Signature, len(s.seeds))
	for i := range sig {
		sig[i] = math.MaxUint64
	}
	for shingle := range shingles {
		h := hashShingle(shingle)
		for i, seed := range s.seeds {
			if v := permute(h, seed); v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// Jaccard estimates the Jaccard similarity between the sets behind two
// signatures as the fraction of matching slots. Empty or mismatched
// signatures estimate to 0.
func (sig Signature) Jaccard(other Signature) float64 {
	if len(sig) == 0 || len(sig) != len(other) {
		return 0
	}
	matches := 0
	for i := range sig {
		if sig[i] == other[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(sig))
}

// Shingles returns the set of contiguous k-word shingles of text. The text
// is expected to be normalized already (lower-cased, single spaces).
func Shingles(text string, k int) map[string]struct{} {
	words := strings.Fields(text)
	shingles := make(map[string]struct{})
	for i := 0; i+k <= len(words); i++ {
		shingles[strings.Join(words[i:i+k], " ")] = struct{}{}
	}
	return shingles
}

func hashShingle(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// permute applies one hash permutation to a shingle hash using a
// splitmix64-style finalizer keyed by seed.
func permute(h, seed uint64) uint64 {
	z := h ^ seed
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
