package pool

import (
	"context"
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/translator"
)

func chain() *feature.Chain {
	return feature.NewChain(feature.Weighted{Function: feature.PhraseScoreFeature{}, Weight: 1.0})
}

func TestTranslateAllPreservesOrder(t *testing.T) {
	tbl := phrasetable.NewMemoryTable()
	tbl.Add("a", phrasetable.Entry{TargetPhrase: "A", Scores: []float64{1}})
	tbl.Add("b", phrasetable.Entry{TargetPhrase: "B", Scores: []float64{1}})
	tbl.Add("c", phrasetable.Entry{TargetPhrase: "C", Scores: []float64{1}})

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1}
	tr := translator.New(tbl, chain, cfg)
	p := New(tr, 2)

	jobs := []Job{
		{RequestID: "1", Text: "a"},
		{RequestID: "2", Text: "b"},
		{RequestID: "3", Text: "c"},
	}
	results := p.TranslateAll(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantIDs := []string{"1", "2", "3"}
	for i, id := range wantIDs {
		if results[i].RequestID != id {
			t.Errorf("results[%d].RequestID = %q, want %q", i, results[i].RequestID, id)
		}
	}
	if results[0].Output.TargetWords[0] != "A" {
		t.Errorf("results[0] target = %v, want [A]", results[0].Output.TargetWords)
	}
}

func TestUtilizationClampsToOne(t *testing.T) {
	p := New(nil, 2)
	if u := p.Utilization(5); u != 1 {
		t.Errorf("Utilization(5) with 2 workers = %v, want 1", u)
	}
	if u := p.Utilization(1); u != 0.5 {
		t.Errorf("Utilization(1) with 2 workers = %v, want 0.5", u)
	}
}
