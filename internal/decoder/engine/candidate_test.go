package engine

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/option"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

type fakeSource struct {
	entries map[span.Span][]option.Entry
}

func (f fakeSource) Lookup(s span.Span) []option.Entry {
	return f.entries[s]
}

func TestBuildCandidatesUnlinkedSpan(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]option.Entry{
		span.New(0, 0): {
			{Phrase: "cat", Scores: []float64{2}},
			{Phrase: "feline", Scores: []float64{1}},
		},
	}}
	coll := option.Collect(src, 1, []float64{1}, 0, 0)
	cands := BuildCandidates(coll)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	for _, c := range cands {
		if len(c.Footprint) != 1 || c.Footprint[0] != span.New(0, 0) {
			t.Errorf("unexpected footprint: %v", c.Footprint)
		}
	}
}

func TestBuildCandidatesLinkedGroupYieldsOneCandidate(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]option.Entry{
		span.New(0, 0): {{Phrase: "le", Scores: []float64{1}, GroupID: 9}},
		span.New(2, 2): {{Phrase: "ne", Scores: []float64{1}, GroupID: 9}},
		span.New(1, 1): {{Phrase: "chat", Scores: []float64{1}}},
	}}
	coll := option.Collect(src, 3, []float64{1}, 0, 0)
	cands := BuildCandidates(coll)

	var linked *Candidate
	for i := range cands {
		if len(cands[i].Footprint) == 2 {
			linked = &cands[i]
		}
	}
	if linked == nil {
		t.Fatal("expected one linked-group candidate with 2-span footprint")
	}
	if linked.Footprint[0] != span.New(0, 0) || linked.Footprint[1] != span.New(2, 2) {
		t.Errorf("footprint out of order: %v", linked.Footprint)
	}
	if len(linked.Words) != 2 || linked.Words[0] != "le" || linked.Words[1] != "ne" {
		t.Errorf("unexpected words: %v", linked.Words)
	}
	if linked.Score != 2 {
		t.Errorf("expected combined score 2, got %v", linked.Score)
	}
}

func TestGroupByFootprintSortsDescendingByScore(t *testing.T) {
	cands := []Candidate{
		{Footprint: []span.Span{span.New(0, 0)}, Score: 1},
		{Footprint: []span.Span{span.New(0, 0)}, Score: 3},
		{Footprint: []span.Span{span.New(1, 1)}, Score: 2},
	}
	groups := GroupByFootprint(cands)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	g0 := groups[0]
	if len(g0.Candidates) != 2 || g0.Candidates[0].Score != 3 {
		t.Errorf("expected first group's candidates sorted desc by score, got %+v", g0.Candidates)
	}
}
