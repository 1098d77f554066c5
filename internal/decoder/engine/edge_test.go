package engine

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func buildFrom(arena *hypothesis.Arena, scores ...float64) *Container {
	seed := arena.Seed()
	cov := bitmap.New(10)
	c := NewContainer(cov)
	for _, sc := range scores {
		h := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: -1, ScoreDelta: sc})
		c.Add(h)
	}
	c.sortHyps(arena)
	return c
}

func TestExpandRespectsPopLimit(t *testing.T) {
	arena := hypothesis.NewArena(10)
	from := buildFrom(arena, 10, 8, 1)
	columns := []Candidate{
		{Footprint: []span.Span{span.New(0, 0)}, Score: 5},
		{Footprint: []span.Span{span.New(0, 0)}, Score: 3},
	}
	dest := NewContainer(bitmap.New(10).SetRange(span.New(0, 0)))
	AttachEdge(dest, from, columns)

	proposals := dest.Expand(arena, hypothesis.DistortionChecker{MaxDistortion: -1}, 2)
	if len(proposals) != 2 {
		t.Fatalf("expected exactly popLimit=2 proposals, got %d", len(proposals))
	}
	// best cell must be (row 0, col 0): highest hyp score + highest column score.
	if proposals[0].Hyp != from.Hyps[0] || proposals[0].Candidate.Score != 5 {
		t.Errorf("expected first proposal to be the best combination, got hyp=%v score=%v", proposals[0].Hyp, proposals[0].Candidate.Score)
	}
}

func TestExpandSkipsDistortionFailuresWithoutConsumingBudget(t *testing.T) {
	arena := hypothesis.NewArena(10)
	seed := arena.Seed()
	cov := bitmap.New(10)
	// First hypothesis ends far right so jumping to span [0,0] violates distortion.
	farHyp := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 9, ScoreDelta: 10})
	nearHyp := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: -1, ScoreDelta: 1})
	from := NewContainer(cov)
	from.Add(farHyp)
	from.Add(nearHyp)
	from.sortHyps(arena)

	columns := []Candidate{{Footprint: []span.Span{span.New(0, 0)}, Score: 5}}
	dest := NewContainer(bitmap.New(10).SetRange(span.New(0, 0)))
	AttachEdge(dest, from, columns)

	proposals := dest.Expand(arena, hypothesis.DistortionChecker{MaxDistortion: 0}, 1)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 accepted proposal, got %d", len(proposals))
	}
	if proposals[0].Hyp != nearHyp {
		t.Errorf("expected distortion failure on farHyp to be skipped, got %v", proposals[0].Hyp)
	}
}

func TestExpandMergesMultipleEdges(t *testing.T) {
	arena := hypothesis.NewArena(10)
	fromA := buildFrom(arena, 10)
	fromB := buildFrom(arena, 20)

	dest := NewContainer(bitmap.New(10).SetRange(span.New(0, 0)))
	AttachEdge(dest, fromA, []Candidate{{Footprint: []span.Span{span.New(0, 0)}, Score: 1}})
	AttachEdge(dest, fromB, []Candidate{{Footprint: []span.Span{span.New(0, 0)}, Score: 1}})

	proposals := dest.Expand(arena, hypothesis.DistortionChecker{MaxDistortion: -1}, 1)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	if proposals[0].Hyp != fromB.Hyps[0] {
		t.Error("expected the globally best cell across both edges to win")
	}
}
