package futurecost

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

type fakeScorer struct {
	scores map[span.Span]float64
}

func (f fakeScorer) BestScore(s span.Span) (float64, bool) {
	v, ok := f.scores[s]
	return v, ok
}

func TestBuildSingleSpanCoverage(t *testing.T) {
	scorer := fakeScorer{scores: map[span.Span]float64{
		span.New(0, 0): 1,
		span.New(1, 1): 2,
		span.New(0, 1): 2.5,
	}}
	table := Build(scorer, 2)
	// best for [0,1] is max(direct 2.5, split 1+2=3) = 3
	if got := table.Score(span.New(0, 1)); got != 3 {
		t.Errorf("Score([0,1]) = %v, want 3", got)
	}
}

func TestBuildPrefersDirectOverSplitWhenHigher(t *testing.T) {
	scorer := fakeScorer{scores: map[span.Span]float64{
		span.New(0, 0): 1,
		span.New(1, 1): 1,
		span.New(0, 1): 5,
	}}
	table := Build(scorer, 2)
	if got := table.Score(span.New(0, 1)); got != 5 {
		t.Errorf("Score([0,1]) = %v, want 5", got)
	}
}

func TestUnreachableSpanPropagates(t *testing.T) {
	scorer := fakeScorer{scores: map[span.Span]float64{
		span.New(1, 1): 1,
		span.New(2, 2): 1,
	}}
	table := Build(scorer, 3)
	if table.Reachable(span.New(0, 2)) {
		t.Error("span containing an uncovered position should be unreachable")
	}
	if table.Reachable(span.New(1, 2)) == false {
		t.Error("span [1,2] should be reachable via split")
	}
}

func TestRemainingSumsGaps(t *testing.T) {
	scorer := fakeScorer{scores: map[span.Span]float64{
		span.New(0, 0): 1,
		span.New(2, 3): 4,
	}}
	table := Build(scorer, 4)
	gaps := []span.Span{span.New(0, 0), span.New(2, 3)}
	if got := table.Remaining(gaps); got != 5 {
		t.Errorf("Remaining() = %v, want 5", got)
	}
}
