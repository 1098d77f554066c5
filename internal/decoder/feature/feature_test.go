package feature

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func TestDistortionPenaltyFeatureMonotone(t *testing.T) {
	f := DistortionPenaltyFeature{}
	ctx := Context{PrevEnd: 2, NewSpan: span.New(3, 4)}
	if got := f.Score(ctx); got != 0 {
		t.Errorf("monotone continuation should score 0, got %v", got)
	}
}

func TestDistortionPenaltyFeatureJump(t *testing.T) {
	f := DistortionPenaltyFeature{}
	ctx := Context{PrevEnd: 2, NewSpan: span.New(6, 6)}
	if got := f.Score(ctx); got != -3 {
		t.Errorf("jump of 3 should score -3, got %v", got)
	}
}

func TestNGramContinuityFeature(t *testing.T) {
	f := NGramContinuityFeature{}
	match := Context{PrevTargetWords: []string{"the", "cat"}, NewTargetWords: []string{"cat", "sat"}}
	if got := f.Score(match); got != 1 {
		t.Errorf("expected continuity match to score 1, got %v", got)
	}
	noMatch := Context{PrevTargetWords: []string{"the", "cat"}, NewTargetWords: []string{"dog", "sat"}}
	if got := f.Score(noMatch); got != 0 {
		t.Errorf("expected no continuity to score 0, got %v", got)
	}
}

func TestWordPenaltyFeature(t *testing.T) {
	f := WordPenaltyFeature{}
	ctx := Context{NewTargetWords: []string{"a", "b", "c"}}
	if got := f.Score(ctx); got != -3 {
		t.Errorf("word penalty for 3 words = %v, want -3", got)
	}
}

func TestChainScoreSumsWeightedContributions(t *testing.T) {
	chain := NewChain(
		Weighted{Function: PhraseScoreFeature{}, Weight: 0.5},
		Weighted{Function: DistortionPenaltyFeature{}, Weight: 1.0},
		Weighted{Function: WordPenaltyFeature{}, Weight: 0.1},
	)
	ctx := Context{PrevEnd: 0, NewSpan: span.New(1, 1), NewTargetWords: []string{"x"}, PhraseScore: 2}
	// phrase: 0.5*2=1, distortion: 1.0*0=0, wordpenalty: 0.1*-1=-0.1
	want := 0.9
	if got := chain.Score(ctx); got < want-1e-9 || got > want+1e-9 {
		t.Errorf("Chain.Score() = %v, want %v", got, want)
	}
}

func TestChainBreakdownNamesEachFeature(t *testing.T) {
	chain := NewChain(
		Weighted{Function: DistortionPenaltyFeature{}, Weight: 1.0},
		Weighted{Function: WordPenaltyFeature{}, Weight: 1.0},
	)
	entries := chain.Breakdown(Context{NewTargetWords: []string{"a"}})
	if len(entries) != 2 {
		t.Fatalf("expected 2 breakdown entries, got %d", len(entries))
	}
	if entries[0].Name != "distortion_penalty" || entries[1].Name != "word_penalty" {
		t.Errorf("unexpected breakdown order: %+v", entries)
	}
}
