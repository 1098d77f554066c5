// Package hypothesis implements partial-translation hypotheses and the
// per-sentence Arena that owns them.
//
// Hypotheses reference their predecessor by Handle (an arena index) rather
// than by pointer, matching spec.md §2.2's "hypotheses never outlive their
// sentence" lifetime rule and avoiding cross-goroutine shared mutable state
// when multiple sentences decode concurrently (internal/translator/pool
// runs one Arena per worker goroutine, grounded on
// internal/searcher/executor.ShardedExecutor's per-shard isolation).
package hypothesis

import (
	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Handle is an index into an Arena's hypothesis slice. The zero Handle (0)
// is reserved for the seed (empty) hypothesis of every sentence.
type Handle int

// NoPredecessor marks the seed hypothesis, which has no predecessor.
const NoPredecessor Handle = -1

// Hypothesis is one partial translation: a source coverage bitmap, the
// cumulative model score accrued so far, and a back-reference to the
// predecessor it extended (spec.md §3 "Hypothesis").
type Hypothesis struct {
	Self        Handle
	Prev        Handle
	Coverage    bitmap.Bitmap
	LastEnd     int // source end-position of the most recently covered span, -1 for the seed
	Score       float64
	FutureScore float64 // Score + future-cost estimate of the uncovered remainder, used for ranking
	TargetWords []string
	// SeqNum is assigned in creation order and used only to break exact
	// score ties deterministically (spec.md §4.5 "never use map or pointer
	// iteration order to break ties").
	SeqNum int
}

// Arena owns every hypothesis created while decoding one sentence. It is
// not safe for concurrent use by multiple goroutines; each sentence's
// decode runs in a single goroutine per spec.md §2.2 "no intra-sentence
// parallelism".
type Arena struct {
	hyps []Hypothesis
}

// NewArena creates an empty Arena sized for a sentence of length n.
func NewArena(n int) *Arena {
	a := &Arena{hyps: make([]Hypothesis, 0, n*4)}
	a.hyps = append(a.hyps, Hypothesis{
		Self:     0,
		Prev:     NoPredecessor,
		Coverage: bitmap.New(n),
		LastEnd:  -1,
		SeqNum:   0,
	})
	return a
}

// Seed returns the handle of the empty hypothesis every sentence starts
// from (spec.md §4.1 "N=0 stack seed").
func (a *Arena) Seed() Handle { return 0 }

// Get dereferences a handle. Panics on an out-of-range handle, which can
// only indicate an engine bug (arena handles are never exposed outside a
// single sentence's decode).
func (a *Arena) Get(h Handle) *Hypothesis {
	return &a.hyps[h]
}

// Len returns the number of hypotheses allocated so far.
func (a *Arena) Len() int { return len(a.hyps) }

// ExtendInput bundles the arguments needed to create one new hypothesis
// from a predecessor by applying a translation option (or an atomic linked
// group of them, applied as the single combined extension described by
// spec.md §4.2).
type ExtendInput struct {
	Prev        Handle
	NewCoverage bitmap.Bitmap
	NewLastEnd  int
	ScoreDelta  float64
	NewWords    []string
}

// Extend creates a new hypothesis in the arena from in.Prev, returning its
// handle. The new hypothesis's Score is the predecessor's Score plus
// in.ScoreDelta; FutureScore must be set separately once the caller knows
// the future-cost estimate for the new coverage's remainder.
func (a *Arena) Extend(in ExtendInput) Handle {
	prev := a.Get(in.Prev)
	words := make([]string, 0, len(prev.TargetWords)+len(in.NewWords))
	words = append(words, prev.TargetWords...)
	words = append(words, in.NewWords...)

	h := Handle(len(a.hyps))
	a.hyps = append(a.hyps, Hypothesis{
		Self:        h,
		Prev:        in.Prev,
		Coverage:    in.NewCoverage,
		LastEnd:     in.NewLastEnd,
		Score:       prev.Score + in.ScoreDelta,
		TargetWords: words,
		SeqNum:      int(h),
	})
	return h
}

// DistortionChecker decides whether extending a hypothesis whose last
// covered position is prevEnd by a new span newSpan stays within the
// configured reordering limits (spec.md §4.3 "Distortion Limit").
type DistortionChecker struct {
	// MaxDistortion is the maximum allowed jump, in source words, between
	// prevEnd+1 and newSpan.Start. A negative value disables the limit
	// (spec.md's "unlimited reordering" configuration).
	MaxDistortion int
	// PunctuationPositions marks source positions that are punctuation;
	// when MonotoneAtPunctuation is set, no hypothesis may reorder across
	// one of these positions (spec.md §6 "monotoneAtPunctuation").
	PunctuationPositions  []bool
	MonotoneAtPunctuation bool
}

// Allows reports whether extending past prevEnd into newSpan is permitted.
func (d DistortionChecker) Allows(prevEnd int, newSpan span.Span) bool {
	if d.MaxDistortion >= 0 {
		gap := newSpan.Start - (prevEnd + 1)
		if gap < 0 {
			gap = -gap
		}
		if gap > d.MaxDistortion {
			return false
		}
	}
	if d.MonotoneAtPunctuation {
		lo, hi := prevEnd+1, newSpan.Start-1
		if newSpan.Start < prevEnd {
			lo, hi = newSpan.Start, prevEnd-1
		}
		for p := lo; p <= hi; p++ {
			if p >= 0 && p < len(d.PunctuationPositions) && d.PunctuationPositions[p] {
				return false
			}
		}
	}
	return true
}

// RecombinationKey returns a value two hypotheses must share to be
// indistinguishable for all future extensions, and therefore candidates for
// recombination (spec.md §4.4): identical coverage and identical
// last-translated end position (the minimal state the distortion and
// future-cost models depend on). Decoders adding richer context-dependent
// features (e.g. a higher-order language model) would extend this key with
// the relevant trailing target words; this implementation's feature set
// (see internal/decoder/feature) only looks one word back, already baked
// into Coverage/LastEnd plus the last target word below.
type RecombinationKey struct {
	CoverageKey string
	LastEnd     int
	LastWord    string
}

// Key computes h's recombination key given the hypothesis's own fields.
func (h *Hypothesis) Key() RecombinationKey {
	last := ""
	if n := len(h.TargetWords); n > 0 {
		last = h.TargetWords[n-1]
	}
	return RecombinationKey{CoverageKey: h.Coverage.Key(), LastEnd: h.LastEnd, LastWord: last}
}
