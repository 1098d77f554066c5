// Package bitmap implements the Word Coverage Bitmap: a fixed-length bit
// array recording which source words a hypothesis has already translated.
//
// The bit-parallel layout (a []uint64 word array with math/bits popcount and
// trailing-zeros operations) is grounded on the other_examples bitset
// implementations in the retrieval pack (e.g. gaissmai-bart's BitSet256),
// generalized here from a fixed 256-bit array to the variable sentence
// length the decoder spec requires.
//
// A Bitmap is a value type: every mutating-looking operation (SetRange)
// returns a new Bitmap rather than mutating in place, matching spec.md's
// "Immutable once assigned to a container" invariant.
package bitmap

import (
	"encoding/binary"
	"math/bits"
	"strings"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

const wordBits = 64

// Bitmap is a fixed-length coverage bitmap over N source word positions.
type Bitmap struct {
	words []uint64
	n     int
}

// New returns an all-clear bitmap over n word positions.
func New(n int) Bitmap {
	return Bitmap{words: make([]uint64, wordCount(n)), n: n}
}

// Full returns a bitmap with all n positions covered.
func Full(n int) Bitmap {
	b := New(n)
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.clearTail()
	return b
}

func wordCount(n int) int {
	return (n + wordBits - 1) / wordBits
}

func (b Bitmap) clearTail() {
	if b.n == 0 {
		return
	}
	last := len(b.words) - 1
	rem := b.n % wordBits
	if rem == 0 {
		return
	}
	mask := (uint64(1) << uint(rem)) - 1
	b.words[last] &= mask
}

// N returns the sentence length this bitmap is sized for.
func (b Bitmap) N() int { return b.n }

// Test reports whether position i is covered.
func (b Bitmap) Test(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0
}

// SetRange returns a new Bitmap with [s.Start, s.End] marked covered.
func (b Bitmap) SetRange(s span.Span) Bitmap {
	out := b.clone()
	for i := s.Start; i <= s.End; i++ {
		out.words[i/wordBits] |= uint64(1) << uint(i%wordBits)
	}
	return out
}

func (b Bitmap) clone() Bitmap {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return Bitmap{words: words, n: b.n}
}

// CountCovered returns the number of covered positions (population count).
func (b Bitmap) CountCovered() int {
	count := 0
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// Overlaps reports whether any position in s is already covered.
func (b Bitmap) Overlaps(s span.Span) bool {
	for i := s.Start; i <= s.End; i++ {
		if b.Test(i) {
			return true
		}
	}
	return false
}

// FirstGap returns the first maximal contiguous run of uncovered positions,
// starting the search at "from". ok is false if no uncovered position
// remains at or after "from".
func (b Bitmap) FirstGap(from int) (s span.Span, ok bool) {
	start := -1
	for i := from; i < b.n; i++ {
		if !b.Test(i) {
			start = i
			break
		}
	}
	if start == -1 {
		return span.Span{}, false
	}
	end := start
	for end+1 < b.n && !b.Test(end+1) {
		end++
	}
	return span.Span{Start: start, End: end}, true
}

// Gaps returns every maximal contiguous run of uncovered positions, in
// left-to-right order. Used by the future-cost table to sum lookahead
// scores over the uncovered remainder of a hypothesis (spec.md §4.1 Query).
func (b Bitmap) Gaps() []span.Span {
	var gaps []span.Span
	from := 0
	for {
		g, ok := b.FirstGap(from)
		if !ok {
			break
		}
		gaps = append(gaps, g)
		from = g.End + 1
	}
	return gaps
}

// Equals reports whether b and other cover exactly the same positions.
func (b Bitmap) Equals(other Bitmap) bool {
	if b.n != other.n || len(b.words) != len(other.words) {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Key returns a comparable, hashable representation of b suitable for use
// as a map key grouping hypotheses into the same bitmap container.
func (b Bitmap) Key() string {
	buf := make([]byte, len(b.words)*8)
	for i, w := range b.words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return string(buf)
}

// String renders the bitmap as a sequence of '0'/'1' characters, most
// significant (highest index) position last.
func (b Bitmap) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
