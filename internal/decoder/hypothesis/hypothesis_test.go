package hypothesis

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func TestArenaSeedIsEmpty(t *testing.T) {
	a := NewArena(5)
	seed := a.Get(a.Seed())
	if seed.Coverage.CountCovered() != 0 {
		t.Errorf("seed hypothesis should cover nothing, got %d", seed.Coverage.CountCovered())
	}
	if seed.LastEnd != -1 {
		t.Errorf("seed LastEnd = %d, want -1", seed.LastEnd)
	}
	if seed.Prev != NoPredecessor {
		t.Errorf("seed Prev = %d, want NoPredecessor", seed.Prev)
	}
}

func TestExtendAccumulatesScoreAndWords(t *testing.T) {
	a := NewArena(5)
	seed := a.Seed()
	cov := a.Get(seed).Coverage.SetRange(span.New(0, 1))

	h1 := a.Extend(ExtendInput{
		Prev:        seed,
		NewCoverage: cov,
		NewLastEnd:  1,
		ScoreDelta:  2.5,
		NewWords:    []string{"the", "cat"},
	})

	cov2 := a.Get(h1).Coverage.SetRange(span.New(2, 2))
	h2 := a.Extend(ExtendInput{
		Prev:        h1,
		NewCoverage: cov2,
		NewLastEnd:  2,
		ScoreDelta:  1.0,
		NewWords:    []string{"sat"},
	})

	got := a.Get(h2)
	if got.Score != 3.5 {
		t.Errorf("Score = %v, want 3.5", got.Score)
	}
	want := []string{"the", "cat", "sat"}
	if len(got.TargetWords) != len(want) {
		t.Fatalf("TargetWords = %v, want %v", got.TargetWords, want)
	}
	for i := range want {
		if got.TargetWords[i] != want[i] {
			t.Errorf("TargetWords[%d] = %q, want %q", i, got.TargetWords[i], want[i])
		}
	}
}

func TestExtendDoesNotMutatePredecessorWords(t *testing.T) {
	a := NewArena(5)
	seed := a.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 0))
	h1 := a.Extend(ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 0, NewWords: []string{"a"}})
	_ = a.Extend(ExtendInput{Prev: h1, NewCoverage: cov.SetRange(span.New(1, 1)), NewLastEnd: 1, NewWords: []string{"b"}})

	if len(a.Get(h1).TargetWords) != 1 {
		t.Errorf("predecessor TargetWords mutated: %v", a.Get(h1).TargetWords)
	}
}

func TestDistortionCheckerMaxDistortion(t *testing.T) {
	d := DistortionChecker{MaxDistortion: 2}
	if !d.Allows(3, span.New(5, 5)) {
		t.Error("gap of 1 should be allowed within limit 2")
	}
	if d.Allows(3, span.New(8, 8)) {
		t.Error("gap of 4 should be rejected with limit 2")
	}
}

func TestDistortionCheckerUnlimited(t *testing.T) {
	d := DistortionChecker{MaxDistortion: -1}
	if !d.Allows(0, span.New(100, 100)) {
		t.Error("negative MaxDistortion should disable the limit")
	}
}

func TestDistortionCheckerMonotoneAtPunctuation(t *testing.T) {
	punct := []bool{false, false, true, false, false}
	d := DistortionChecker{MaxDistortion: -1, MonotoneAtPunctuation: true, PunctuationPositions: punct}
	if d.Allows(1, span.New(4, 4)) {
		t.Error("reordering across punctuation at position 2 should be rejected")
	}
	if !d.Allows(0, span.New(1, 1)) {
		t.Error("reordering not crossing punctuation should be allowed")
	}
}

func TestRecombinationKeyMatchesOnCoverageAndLastEnd(t *testing.T) {
	a := NewArena(5)
	seed := a.Seed()
	cov := bitmap.New(5).SetRange(span.New(0, 1))

	h1 := a.Extend(ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 1, NewWords: []string{"x"}})
	h2 := a.Extend(ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 1, NewWords: []string{"x"}})
	h3 := a.Extend(ExtendInput{Prev: seed, NewCoverage: cov, NewLastEnd: 1, NewWords: []string{"y"}})

	k1, k2, k3 := a.Get(h1).Key(), a.Get(h2).Key(), a.Get(h3).Key()
	if k1 != k2 {
		t.Error("identical coverage/lastEnd/lastWord should produce equal keys")
	}
	if k1 == k3 {
		t.Error("different last word should produce different keys")
	}
}
