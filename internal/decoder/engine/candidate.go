// Package engine implements the cube-pruning search machinery: Bitmap
// Containers, Backwards Edges, and Hypothesis Stacks (spec.md §3-§4).
//
// BitmapContainer and BackwardsEdge reference each other in the original
// design (a container lists the edges that feed it; an edge's K×K grid is
// defined against a specific container's hypothesis list), which in Go
// would otherwise force two packages to import one another. Keeping them
// in a single package avoids that import cycle while preserving the
// coupling, the same tradeoff the teacher repo makes by keeping
// internal/searcher/executor and internal/searcher/merger's tightly
// coupled fan-out/merge logic in sibling files of one package rather than
// splitting them further.
package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/latticemt/cubedecoder/internal/decoder/option"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Candidate is one atomic translation chunk: either a single unlinked
// option covering one span, or a full linked group covering its combined
// footprint, applied together or not at all (spec.md §4.2).
type Candidate struct {
	Footprint []span.Span
	Members   []*option.Option
	Words     []string
	Score     float64
}

// CandidateGroup bundles every Candidate sharing an identical Footprint;
// within cube pruning this is the column axis of one BackwardsEdge.
type CandidateGroup struct {
	Footprint  []span.Span
	Candidates []Candidate
}

// BuildCandidates enumerates every Candidate in a sentence's translation
// option collection: one per unlinked option, one per distinct linked
// group (spec.md §3 "linked options" are applied atomically, so each
// group yields exactly one Candidate regardless of its member count).
func BuildCandidates(coll *option.Collection) []Candidate {
	n := coll.N()
	seen := make(map[*option.Option]bool)
	var out []Candidate

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			for _, o := range coll.OptionsFor(span.Span{Start: i, End: j}) {
				if seen[o] {
					continue
				}
				if len(o.Linked) == 0 {
					seen[o] = true
					out = append(out, Candidate{
						Footprint: []span.Span{o.Span},
						Members:   []*option.Option{o},
						Words:     strings.Fields(o.Phrase),
						Score:     o.PreScore,
					})
					continue
				}
				members := append([]*option.Option{o}, o.Linked...)
				sort.Slice(members, func(a, b int) bool { return members[a].Span.Start < members[b].Span.Start })
				for _, m := range members {
					seen[m] = true
				}
				var words []string
				var score float64
				for _, m := range members {
					words = append(words, strings.Fields(m.Phrase)...)
					score += m.PreScore
				}
				footprint := make([]span.Span, len(members))
				for k, m := range members {
					footprint[k] = m.Span
				}
				out = append(out, Candidate{Footprint: footprint, Members: members, Words: words, Score: score})
			}
		}
	}
	return out
}

// footprintKey canonicalizes a footprint for grouping, independent of
// candidate score ordering.
func footprintKey(spans []span.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(strconv.Itoa(s.Start))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(s.End))
		sb.WriteByte(',')
	}
	return sb.String()
}

// GroupByFootprint groups candidates that cover the exact same footprint,
// sorting each group's members by Score descending (the column axis of a
// BackwardsEdge, spec.md §3 "grid of candidate translation options").
// Grouping is computed once per sentence and reused for every predecessor
// container's expansion (spec.md's footprint is static, independent of any
// particular hypothesis).
func GroupByFootprint(candidates []Candidate) []*CandidateGroup {
	byKey := make(map[string]*CandidateGroup)
	var order []string
	for _, c := range candidates {
		k := footprintKey(c.Footprint)
		g, ok := byKey[k]
		if !ok {
			g = &CandidateGroup{Footprint: c.Footprint}
			byKey[k] = g
			order = append(order, k)
		}
		g.Candidates = append(g.Candidates, c)
	}
	groups := make([]*CandidateGroup, 0, len(order))
	for _, k := range order {
		g := byKey[k]
		sort.SliceStable(g.Candidates, func(a, b int) bool { return g.Candidates[a].Score > g.Candidates[b].Score })
		groups = append(groups, g)
	}
	return groups
}
