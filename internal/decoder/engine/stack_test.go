package engine

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func extendWithFutureScore(arena *hypothesis.Arena, prev hypothesis.Handle, cov bitmap.Bitmap, end int, score float64) hypothesis.Handle {
	h := arena.Extend(hypothesis.ExtendInput{Prev: prev, NewCoverage: cov, NewLastEnd: end, ScoreDelta: score})
	arena.Get(h).FutureScore = score
	return h
}

func TestStackContainerForIsDeterministicByInsertionOrder(t *testing.T) {
	s := NewStack(1)
	covA := bitmap.New(5).SetRange(span.New(0, 0))
	covB := bitmap.New(5).SetRange(span.New(1, 1))

	cA := s.ContainerFor(covA)
	cB := s.ContainerFor(covB)
	if s.ContainerFor(covA) != cA {
		t.Error("expected ContainerFor to return the same container on repeat lookup")
	}
	containers := s.Containers()
	if len(containers) != 2 || containers[0] != cA || containers[1] != cB {
		t.Error("expected Containers() to preserve insertion order")
	}
}

func TestBeamPruneDropsFarBelowBest(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))
	s := NewStack(1)
	c := s.ContainerFor(cov)

	best := extendWithFutureScore(arena, seed, cov, 0, 10)
	worst := extendWithFutureScore(arena, seed, cov, 0, 1)
	c.Add(best)
	c.Add(worst)

	s.BeamPrune(arena, 5)
	if len(c.Hyps) != 1 || c.Hyps[0] != best {
		t.Errorf("expected only best hypothesis to survive beam pruning, got %v", c.Hyps)
	}
}

func TestBeamPruneDisabledWhenWidthNonPositive(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))
	s := NewStack(1)
	c := s.ContainerFor(cov)
	c.Add(extendWithFutureScore(arena, seed, cov, 0, 10))
	c.Add(extendWithFutureScore(arena, seed, cov, 0, 1))

	s.BeamPrune(arena, 0)
	if len(c.Hyps) != 2 {
		t.Errorf("expected beam pruning disabled, got %d hyps", len(c.Hyps))
	}
}

func TestHistogramPruneRespectsDiversityFloor(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	s := NewStack(1)

	covA := bitmap.New(5).SetRange(span.New(0, 0))
	covB := bitmap.New(5).SetRange(span.New(1, 1))
	cA := s.ContainerFor(covA)
	cB := s.ContainerFor(covB)

	// Container A has 3 high scorers; container B has 1 low scorer that
	// would be entirely squeezed out without a diversity floor.
	for _, sc := range []float64{100, 99, 98} {
		cA.Add(extendWithFutureScore(arena, seed, covA, 0, sc))
	}
	cB.Add(extendWithFutureScore(arena, seed, covB, 1, 1))

	s.HistogramPrune(arena, 2, 1)

	if len(cB.Hyps) != 1 {
		t.Errorf("expected diversity floor to protect container B's only hypothesis, got %d", len(cB.Hyps))
	}
	if s.Len() != 2 {
		t.Errorf("expected total stack size capped at maxSize=2, got %d", s.Len())
	}
}

func TestHistogramPruneDisabledWhenMaxSizeNonPositive(t *testing.T) {
	arena := hypothesis.NewArena(5)
	seed := arena.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))
	s := NewStack(1)
	c := s.ContainerFor(cov)
	for i := 0; i < 5; i++ {
		c.Add(extendWithFutureScore(arena, seed, cov, 0, float64(i)))
	}
	s.HistogramPrune(arena, 0, 0)
	if len(c.Hyps) != 5 {
		t.Errorf("expected histogram pruning disabled, got %d hyps", len(c.Hyps))
	}
}
