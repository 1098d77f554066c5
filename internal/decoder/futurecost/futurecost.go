// Package futurecost implements the admissible lookahead table described in
// spec.md §4.1: for every contiguous source span [i,j], the best achievable
// score for translating that span in isolation, used to rank and prune
// partial hypotheses before their uncovered remainder is actually
// translated.
//
// The DP recurrence (best single-span estimate, then best split point) is
// grounded on original_source's future-cost table construction
// (branches/mtm2_cube_pruning/moses), re-expressed here as a triangular
// []float64 table filled bottom-up the way internal/indexer/index's
// posting-list merge builds up aggregate structures incrementally.
package futurecost

import "github.com/latticemt/cubedecoder/internal/decoder/span"

const unreachable = -1e18

// Table holds the best-case score estimate for every span [i,j], 0 <= i <=
// j < n, computed once per sentence before search begins.
type Table struct {
	n   int
	est [][]float64 // est[i][j-i] = best score for span [i,j]
}

// SpanScorer supplies the best (highest) score achievable for covering span
// s with a single translation option, or ok=false if no option covers s at
// all. internal/decoder/search adapts an option.Collection to this
// interface (spanScorerAdapter, built on Collection.OptionsFor).
type SpanScorer interface {
	BestScore(s span.Span) (score float64, ok bool)
}

// Build computes the future-cost table for a sentence of length n, given a
// scorer producing the best single-option score per span. Spans with no
// covering option are filled in via the best split into two unreachable-free
// sub-spans if one exists, else left unreachable (spec.md §4.1 "gaps with no
// translation option anywhere are a model-construction error, not a search
// failure"; we degrade gracefully by treating them as infinitely costly
// instead of panicking, so a partially bad phrase table doesn't crash the
// decoder).
func Build(scorer SpanScorer, n int) *Table {
	t := &Table{n: n, est: make([][]float64, n)}
	for i := 0; i < n; i++ {
		t.est[i] = make([]float64, n-i)
	}

	for length := 1; length <= n; length++ {
		for i := 0; i+length-1 < n; i++ {
			j := i + length - 1
			best := unreachable
			if score, ok := scorer.BestScore(span.Span{Start: i, End: j}); ok && score > best {
				best = score
			}
			for k := i; k < j; k++ {
				left := t.est[i][k-i]
				right := t.est[k+1][j-(k+1)]
				if left <= unreachable || right <= unreachable {
					continue
				}
				if combined := left + right; combined > best {
					best = combined
				}
			}
			t.est[i][j-i] = best
		}
	}
	return t
}

// Score returns the pre-computed future-cost estimate for span s.
func (t *Table) Score(s span.Span) float64 {
	return t.est[s.Start][s.End-s.Start]
}

// Remaining sums the future-cost estimate over every gap in the supplied
// list of uncovered spans, the value spec.md §4.1 calls the "future cost
// contribution" added to a hypothesis's rank score. A gap of length 0
// (should not occur; spans are non-empty) contributes nothing.
func (t *Table) Remaining(gaps []span.Span) float64 {
	var sum float64
	for _, g := range gaps {
		sum += t.Score(g)
	}
	return sum
}

// Reachable reports whether span s has any finite cost estimate, i.e.
// whether the source words in s can be translated at all given the
// sentence's phrase table coverage.
func (t *Table) Reachable(s span.Span) bool {
	return t.Score(s) > unreachable
}
