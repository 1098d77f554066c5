package translator

import (
	"context"
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
)

func testChain() *feature.Chain {
	return feature.NewChain(
		feature.Weighted{Function: feature.PhraseScoreFeature{}, Weight: 1.0},
		feature.Weighted{Function: feature.DistortionPenaltyFeature{}, Weight: 1.0},
	)
}

func TestTranslateMonotonePhrase(t *testing.T) {
	tbl := phrasetable.NewMemoryTable()
	tbl.Add("le chat", phrasetable.Entry{TargetPhrase: "the cat", Scores: []float64{1.5}})
	tbl.Add("le", phrasetable.Entry{TargetPhrase: "the", Scores: []float64{1}})
	tbl.Add("chat", phrasetable.Entry{TargetPhrase: "cat", Scores: []float64{1}})

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1}
	tr := New(tbl, testChain, cfg)

	out := tr.Translate(context.Background(), "le chat", 0)
	if len(out.TargetWords) != 2 || out.TargetWords[0] != "the" || out.TargetWords[1] != "cat" {
		t.Errorf("TargetWords = %v, want [the cat]", out.TargetWords)
	}
}

func TestTranslateRequestsNBest(t *testing.T) {
	tbl := phrasetable.NewMemoryTable()
	tbl.Add("le", phrasetable.Entry{TargetPhrase: "the", Scores: []float64{1}})
	tbl.Add("le", phrasetable.Entry{TargetPhrase: "a", Scores: []float64{0.5}})

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1}
	tr := New(tbl, testChain, cfg)

	out := tr.Translate(context.Background(), "le", 5)
	if len(out.NBest) == 0 {
		t.Fatal("expected at least one n-best entry")
	}
	if out.NBest[0].TargetWords[0] != "the" {
		t.Errorf("expected 1-best 'the' to lead n-best, got %v", out.NBest[0].TargetWords)
	}
}
