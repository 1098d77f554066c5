package option

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

type fakeSource struct {
	entries map[span.Span][]Entry
}

func (f fakeSource) Lookup(s span.Span) []Entry {
	return f.entries[s]
}

func TestCollectRanksAndCaps(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]Entry{
		span.New(0, 0): {
			{Phrase: "low", Scores: []float64{1}},
			{Phrase: "high", Scores: []float64{3}},
			{Phrase: "mid", Scores: []float64{2}},
		},
	}}
	c := Collect(src, 3, []float64{1}, 0, 2)
	opts := c.OptionsFor(span.New(0, 0))
	if len(opts) != 2 {
		t.Fatalf("expected cap at 2 options, got %d", len(opts))
	}
	if opts[0].Phrase != "high" || opts[1].Phrase != "mid" {
		t.Errorf("expected options ranked by score desc, got %q, %q", opts[0].Phrase, opts[1].Phrase)
	}
}

func TestCollectRespectsMaxPhraseLength(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]Entry{
		span.New(0, 0): {{Phrase: "a", Scores: []float64{1}}},
		span.New(0, 1): {{Phrase: "ab", Scores: []float64{1}}},
		span.New(0, 2): {{Phrase: "abc", Scores: []float64{1}}},
	}}
	c := Collect(src, 3, []float64{1}, 2, 0)
	if len(c.OptionsFor(span.New(0, 2))) != 0 {
		t.Error("span of length 3 should be excluded by maxPhraseLength=2")
	}
	if len(c.OptionsFor(span.New(0, 1))) != 1 {
		t.Error("span of length 2 should be included")
	}
}

func TestCollectLinksGroupedOptions(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]Entry{
		span.New(0, 0): {{Phrase: "le", Scores: []float64{1}, GroupID: 7}},
		span.New(1, 1): {{Phrase: "chat", Scores: []float64{1}, GroupID: 7}},
	}}
	c := Collect(src, 2, []float64{1}, 0, 0)
	a := c.OptionsFor(span.New(0, 0))[0]
	b := c.OptionsFor(span.New(1, 1))[0]

	if len(a.Linked) != 1 || a.Linked[0] != b {
		t.Fatalf("expected a linked to b, got %+v", a.Linked)
	}
	if len(b.Linked) != 1 || b.Linked[0] != a {
		t.Fatalf("expected b linked to a, got %+v", b.Linked)
	}

	fp := a.Footprint()
	if len(fp) != 2 || fp[0] != span.New(0, 0) || fp[1] != span.New(1, 1) {
		t.Errorf("Footprint() = %v, want [[0,0] [1,1]]", fp)
	}
}

func TestCollectUngroupedOptionHasSingletonFootprint(t *testing.T) {
	src := fakeSource{entries: map[span.Span][]Entry{
		span.New(0, 0): {{Phrase: "solo", Scores: []float64{1}}},
	}}
	c := Collect(src, 1, []float64{1}, 0, 0)
	o := c.OptionsFor(span.New(0, 0))[0]
	fp := o.Footprint()
	if len(fp) != 1 || fp[0] != o.Span {
		t.Errorf("Footprint() = %v, want [%v]", fp, o.Span)
	}
}
