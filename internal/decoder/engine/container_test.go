package engine

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func TestContainerAddRecombiningKeepsHigherScore(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))

	low := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 1, NewWords: []string{"a"}})
	high := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 5, NewWords: []string{"a"}})

	c := NewContainer(cov)
	c.AddRecombining(arena, low)
	c.AddRecombining(arena, high)

	if len(c.Hyps) != 1 {
		t.Fatalf("expected recombination to collapse to 1 active hypothesis, got %d", len(c.Hyps))
	}
	if c.Hyps[0] != high {
		t.Error("expected higher-scoring hypothesis to survive recombination")
	}
}

func TestContainerAddRecombiningDistinctKeysBothSurvive(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))

	a := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 1, NewWords: []string{"a"}})
	b := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 2, NewWords: []string{"b"}})

	c := NewContainer(cov)
	c.AddRecombining(arena, a)
	c.AddRecombining(arena, b)

	if len(c.Hyps) != 2 {
		t.Fatalf("expected 2 distinct hypotheses (different last word), got %d", len(c.Hyps))
	}
}

func TestContainerBestReturnsTopScoring(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))

	low := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 1})
	high := arena.Extend(hypothesis.ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, ScoreDelta: 9})

	c := NewContainer(cov)
	c.Add(low)
	c.Add(high)

	best, ok := c.Best(arena)
	if !ok || best != high {
		t.Errorf("Best() = %v, %v; want %v, true", best, ok, high)
	}
}

func TestContainerBestOnEmptyContainer(t *testing.T) {
	c := NewContainer(bitmap.New(3))
	if _, ok := c.Best(hypothesis.NewArena(3)); ok {
		t.Error("expected Best() to report not-ok on an empty container")
	}
}
