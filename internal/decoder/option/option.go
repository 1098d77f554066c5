// Package option models Translation Options: candidate target phrases for a
// source span, together with their pre-computed feature scores and any
// linked options that must be applied atomically alongside them.
//
// Options are read-only once built (spec.md §3 "Translation Option"); the
// Collection they live in is the per-sentence external input described in
// spec.md §2.1, supplied by internal/phrasetable through the Source
// contract below.
package option

import (
	"sort"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Entry is one phrase-table hit: a target phrase and its raw feature
// scores, exactly as spec.md §6's Phrase Table contract describes
// ("lookup(span) → iterator over (target phrase, feature-score vector)").
type Entry struct {
	Phrase string
	Scores []float64
	// GroupID, when non-zero, marks this entry as part of an atomic linked
	// group together with every other entry sharing the same GroupID
	// returned for the sentence (spec.md §3 "linked options").
	GroupID int
}

// Source is the read-only Phrase Table collaborator of spec.md §6.
type Source interface {
	Lookup(s span.Span) []Entry
}

// Option is one candidate target phrase for a fixed source span.
type Option struct {
	ID       int
	Span     span.Span
	Phrase   string
	Scores   []float64
	PreScore float64
	// Linked holds the other members of this option's atomic group, if any.
	// Applying Option requires applying every member of Linked as well, in
	// order, with no partial application (spec.md §4.2).
	Linked []*Option
}

// Footprint is the total source coverage an Option's atomic group occupies:
// its own span plus every linked option's span, sorted left to right.
func (o *Option) Footprint() []span.Span {
	if len(o.Linked) == 0 {
		return []span.Span{o.Span}
	}
	spans := make([]span.Span, 0, len(o.Linked)+1)
	spans = append(spans, o.Span)
	for _, l := range o.Linked {
		spans = append(spans, l.Span)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// Collection is the per-sentence, read-only set of translation options
// grouped by the exact source span they cover (spec.md §3 Bitmap Container
// groups destinations; Collection groups the raw candidates that feed
// those destinations).
type Collection struct {
	n      int
	bySpan map[span.Span][]*Option
}

// OptionsFor returns the ranked (best PreScore first) candidate options for
// exactly the span s, or nil if the phrase table has nothing for s.
func (c *Collection) OptionsFor(s span.Span) []*Option {
	return c.bySpan[s]
}

// N returns the sentence length this collection was built for.
func (c *Collection) N() int { return c.n }

// Collect enumerates every source span allowed by maxPhraseLength, queries
// src for candidate phrases, scores each by the dot product against
// weights, keeps at most maxTransOptPerCoverage per span (top by PreScore,
// spec.md §4.6), and assembles linked groups from shared GroupIDs.
func Collect(src Source, n int, weights []float64, maxPhraseLength int, maxTransOptPerCoverage int) *Collection {
	c := &Collection{n: n, bySpan: make(map[span.Span][]*Option)}
	if maxPhraseLength <= 0 {
		maxPhraseLength = n
	}

	nextID := 0
	groups := make(map[int][]*Option)

	for i := 0; i < n; i++ {
		maxJ := i + maxPhraseLength - 1
		if maxJ > n-1 {
			maxJ = n - 1
		}
		for j := i; j <= maxJ; j++ {
			sp := span.Span{Start: i, End: j}
			entries := src.Lookup(sp)
			if len(entries) == 0 {
				continue
			}
			opts := make([]*Option, 0, len(entries))
			for _, e := range entries {
				opt := &Option{
					ID:       nextID,
					Span:     sp,
					Phrase:   e.Phrase,
					Scores:   e.Scores,
					PreScore: dot(e.Scores, weights),
				}
				nextID++
				opts = append(opts, opt)
				if e.GroupID != 0 {
					groups[e.GroupID] = append(groups[e.GroupID], opt)
				}
			}
			sort.SliceStable(opts, func(a, b int) bool { return opts[a].PreScore > opts[b].PreScore })
			if maxTransOptPerCoverage > 0 && len(opts) > maxTransOptPerCoverage {
				opts = opts[:maxTransOptPerCoverage]
			}
			c.bySpan[sp] = opts
		}
	}

	linkGroups(groups)
	return c
}

// linkGroups wires Option.Linked for every multi-member group: every
// member's Linked list is every *other* member of the group, so applying any one
// member still pulls in the rest atomically.
func linkGroups(groups map[int][]*Option) {
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			for _, other := range members {
				if other != m {
					m.Linked = append(m.Linked, other)
				}
			}
		}
	}
}

func dot(scores, weights []float64) float64 {
	n := len(scores)
	if len(weights) < n {
		n = len(weights)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += scores[i] * weights[i]
	}
	return sum
}
