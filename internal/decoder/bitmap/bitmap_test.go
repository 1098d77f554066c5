package bitmap

import (
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

func TestSetRangeAndTest(t *testing.T) {
	b := New(5)
	b2 := b.SetRange(span.New(1, 2))

	for _, i := range []int{0, 3, 4} {
		if b2.Test(i) {
			t.Errorf("position %d should be uncovered", i)
		}
	}
	for _, i := range []int{1, 2} {
		if !b2.Test(i) {
			t.Errorf("position %d should be covered", i)
		}
	}
	// original bitmap must be unaffected (immutability).
	if b.CountCovered() != 0 {
		t.Errorf("original bitmap mutated, got %d covered", b.CountCovered())
	}
}

func TestCountCoveredAcrossWordBoundary(t *testing.T) {
	b := New(130)
	b = b.SetRange(span.New(0, 129))
	if got := b.CountCovered(); got != 130 {
		t.Errorf("CountCovered() = %d, want 130", got)
	}
}

func TestOverlaps(t *testing.T) {
	b := New(10).SetRange(span.New(2, 4))
	if !b.Overlaps(span.New(4, 6)) {
		t.Error("expected overlap at boundary position 4")
	}
	if b.Overlaps(span.New(5, 6)) {
		t.Error("unexpected overlap")
	}
}

func TestFirstGapAndGaps(t *testing.T) {
	b := New(10).SetRange(span.New(2, 4)).SetRange(span.New(7, 7))
	g, ok := b.FirstGap(0)
	if !ok || g != span.New(0, 1) {
		t.Errorf("FirstGap(0) = %v, %v; want [0,1], true", g, ok)
	}
	gaps := b.Gaps()
	want := []span.Span{span.New(0, 1), span.New(5, 6), span.New(8, 9)}
	if len(gaps) != len(want) {
		t.Fatalf("Gaps() = %v, want %v", gaps, want)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Errorf("Gaps()[%d] = %v, want %v", i, gaps[i], want[i])
		}
	}
}

func TestFullBitmapHasNoGaps(t *testing.T) {
	b := Full(12)
	if b.CountCovered() != 12 {
		t.Errorf("Full(12).CountCovered() = %d, want 12", b.CountCovered())
	}
	if gaps := b.Gaps(); len(gaps) != 0 {
		t.Errorf("Full(12).Gaps() = %v, want empty", gaps)
	}
}

func TestEqualsAndKey(t *testing.T) {
	a := New(20).SetRange(span.New(3, 5))
	b := New(20).SetRange(span.New(3, 5))
	c := New(20).SetRange(span.New(3, 6))

	if !a.Equals(b) {
		t.Error("a and b should be equal")
	}
	if a.Equals(c) {
		t.Error("a and c should not be equal")
	}
	if a.Key() != b.Key() {
		t.Error("a and b should have identical keys")
	}
	if a.Key() == c.Key() {
		t.Error("a and c should have different keys")
	}
}

func TestClearTailDoesNotLeakBitsBeyondN(t *testing.T) {
	b := Full(5)
	// word has 64 bits but only 5 are logically meaningful.
	if b.CountCovered() != 5 {
		t.Errorf("Full(5).CountCovered() = %d, want 5", b.CountCovered())
	}
}
