package phrasetable

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func TestSentenceSourceJoinsWordsAtSpan(t *testing.T) {
	tbl := NewMemoryTable()
	tbl.Add("le chat", Entry{TargetPhrase: "the cat", Scores: []float64{1}})

	src := NewSentenceSource(tbl, []string{"le", "chat", "noir"})
	got := src.Lookup(span.New(0, 1))
	if len(got) != 1 || got[0].Phrase != "the cat" {
		t.Fatalf("expected [the cat], got %v", got)
	}
}

func TestSentenceSourceOutOfRangeSpanReturnsNil(t *testing.T) {
	src := NewSentenceSource(NewMemoryTable(), []string{"le"})
	if got := src.Lookup(span.New(0, 5)); got != nil {
		t.Errorf("expected nil for out-of-range span, got %v", got)
	}
}

func TestSentenceSourceUnknownPhraseReturnsNil(t *testing.T) {
	src := NewSentenceSource(NewMemoryTable(), []string{"le", "chat"})
	if got := src.Lookup(span.New(0, 0)); got != nil {
		t.Errorf("expected nil for unknown phrase, got %v", got)
	}
}
