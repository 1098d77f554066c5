// Package search wires together the bitmap, option, feature, futurecost,
// hypothesis, and engine packages into the decoder's top-level operation:
// translate one sentence by cube-pruning beam search (spec.md §2 "Decode").
package search

import (
	"context"
	"sort"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/engine"
	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/futurecost"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
	"github.com/latticemt/cubedecoder/internal/decoder/option"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Config holds the search tunables. It has no early-discarding threshold
// and no switch for adding distortion cost to the future-cost lookahead;
// the search does neither.
type Config struct {
	// MaxStackSize is the histogram pruning cap per hypothesis stack. <= 0
	// disables histogram pruning.
	MaxStackSize int
	// BeamWidth discards hypotheses scoring more than this far below a
	// stack's best. <= 0 disables beam pruning.
	BeamWidth float64
	// StackDiversity reserves this many top hypotheses per bitmap
	// container before histogram pruning fills the rest of the stack.
	StackDiversity int
	// CubePruningPopLimit bounds how many new hypotheses cube pruning
	// materializes per bitmap container per stack ("K" in spec.md's
	// BackwardsEdge K×K grid).
	CubePruningPopLimit int
	// CubePruningDiversity reserves this many of CubePruningPopLimit's
	// pops for round-robin exploration across a container's edges.
	CubePruningDiversity int
	// MaxDistortion is the maximum reordering jump allowed, in source
	// words. Negative disables the limit.
	MaxDistortion int
	// MonotoneAtPunctuation forbids reordering across punctuation
	// positions (spec.md §6).
	MonotoneAtPunctuation bool
	// MaxPhraseLength bounds how many source words a single translation
	// option may cover. <= 0 means unbounded (up to sentence length).
	MaxPhraseLength int
	// MaxTransOptPerCoverage caps how many candidate options are kept per
	// source span. <= 0 means unbounded.
	MaxTransOptPerCoverage int
	// Weights are the log-linear model weights, in the same order as the
	// Chain's functions and as each phrase-table entry's Scores vector for
	// the phrase-table sub-weights.
	Weights []float64
}

// DefaultConfig returns conservative defaults modeled on Moses's own
// out-of-the-box settings (original_source/.../StaticData.cpp defaults:
// stack size 200, pop limit 1000, distortion limit 6).
func DefaultConfig() Config {
	return Config{
		MaxStackSize:           200,
		BeamWidth:              0,
		StackDiversity:         0,
		CubePruningPopLimit:    1000,
		CubePruningDiversity:   0,
		MaxDistortion:          6,
		MonotoneAtPunctuation:  false,
		MaxPhraseLength:        7,
		MaxTransOptPerCoverage: 20,
	}
}

// Sentence is one tokenized source sentence to translate.
type Sentence struct {
	Words               []string
	PunctuationPositions []bool
}

// Result is the 1-best decoding output for a sentence.
type Result struct {
	TargetWords []string
	Score       float64
	// Handle and Arena let callers walk the full derivation (e.g. to build
	// an n-best list) beyond the single best translation.
	Handle hypothesis.Handle
	Arena  *hypothesis.Arena
}

// spanScorerAdapter exposes an option.Collection's best per-span score as a
// futurecost.SpanScorer.
type spanScorerAdapter struct{ coll *option.Collection }

func (a spanScorerAdapter) BestScore(s span.Span) (float64, bool) {
	opts := a.coll.OptionsFor(s)
	if len(opts) == 0 {
		return 0, false
	}
	return opts[0].PreScore, true
}

// Engine decodes sentences against a fixed translation option source and
// feature chain. One Engine is safe to share read-only across concurrently
// decoding goroutines (spec.md §2.2); Decode allocates a fresh Arena and
// stack set per call so sentence-level parallelism never shares mutable
// search state.
type Engine struct {
	Source option.Source
	Chain  *feature.Chain
	Config Config
}

// NewEngine builds a decoding Engine.
func NewEngine(src option.Source, chain *feature.Chain, cfg Config) *Engine {
	return &Engine{Source: src, Chain: chain, Config: cfg}
}

// Decode runs cube-pruning beam search over sentence and returns the
// single best translation (spec.md §2 "Decode", §4 the full search loop).
// ctx is checked once before each stack begins (spec.md §5 "Cancellation");
// mid-stack abort is not implemented, matching spec.md ("Mid-stack abort is
// not required"). A canceled context still returns whatever 1-best
// derivation the search had reached in the last completed stack, not an
// error, since a partial translation degrades gracefully while an error
// would discard work already paid for.
func (e *Engine) Decode(ctx context.Context, sentence Sentence) Result {
	n := len(sentence.Words)
	cfg := e.Config

	coll := option.Collect(e.Source, n, cfg.Weights, cfg.MaxPhraseLength, cfg.MaxTransOptPerCoverage)
	candidates := engine.BuildCandidates(coll)
	groups := engine.GroupByFootprint(candidates)
	fc := futurecost.Build(spanScorerAdapter{coll}, n)

	checker := hypothesis.DistortionChecker{
		MaxDistortion:         cfg.MaxDistortion,
		PunctuationPositions:  sentence.PunctuationPositions,
		MonotoneAtPunctuation: cfg.MonotoneAtPunctuation,
	}

	arena := hypothesis.NewArena(n)
	stacks := make([]*engine.Stack, n+1)
	stacks[0] = engine.NewStack(0)
	seedCov := bitmap.New(n)
	seedContainer := stacks[0].ContainerFor(seedCov)
	seedHandle := arena.Seed()
	arena.Get(seedHandle).FutureScore = fc.Remaining(seedCov.Gaps())
	seedContainer.Add(seedHandle)

	lastCompleted := 0
	for covered := 0; covered <= n; covered++ {
		if ctx.Err() != nil {
			break
		}
		stack := stacks[covered]
		if stack == nil {
			continue
		}

		if covered > 0 {
			for _, c := range stack.Containers() {
				proposals := c.ExpandDiverse(arena, checker, cfg.CubePruningPopLimit, cfg.CubePruningDiversity)
				for _, p := range proposals {
					e.materialize(arena, fc, c, p)
				}
			}
			stack.BeamPrune(arena, cfg.BeamWidth)
			stack.HistogramPrune(arena, cfg.MaxStackSize, cfg.StackDiversity)
		}

		for _, c := range stack.Containers() {
			e.attachOutgoingEdges(stacks, n, c, groups)
		}
		lastCompleted = covered
	}

	final := stacks[n]
	best, ok := bestInStack(arena, final)
	if !ok {
		// Canceled before the final stack was reached: fall back to the
		// best partial hypothesis from the last stack fully processed.
		if partial := stacks[lastCompleted]; partial != nil {
			if h, pok := bestInStack(arena, partial); pok {
				hv := arena.Get(h)
				return Result{TargetWords: hv.TargetWords, Score: hv.Score, Handle: h, Arena: arena}
			}
		}
		return Result{Arena: arena, Handle: hypothesis.NoPredecessor}
	}
	h := arena.Get(best)
	return Result{TargetWords: h.TargetWords, Score: h.Score, Handle: best, Arena: arena}
}

// materialize turns one cube-pruning proposal into a real hypothesis,
// scores it via the feature chain, and recombines it into its destination
// container.
func (e *Engine) materialize(arena *hypothesis.Arena, fc *futurecost.Table, dest *engine.Container, p engine.Proposal) {
	prev := arena.Get(p.Hyp)
	newCov := prev.Coverage
	for _, sp := range p.Candidate.Footprint {
		newCov = newCov.SetRange(sp)
	}
	landing := engine.FootprintSpan(p.Candidate.Footprint)

	ctx := feature.Context{
		SourceLen:       newCov.N(),
		PrevEnd:         prev.LastEnd,
		NewSpan:         landing,
		PrevTargetWords: prev.TargetWords,
		NewTargetWords:  p.Candidate.Words,
		PhraseScore:     p.Candidate.Score,
	}
	delta := e.Chain.Score(ctx)

	h := arena.Extend(hypothesis.ExtendInput{
		Prev:        p.Hyp,
		NewCoverage: newCov,
		NewLastEnd:  landing.End,
		ScoreDelta:  delta,
		NewWords:    p.Candidate.Words,
	})
	arena.Get(h).FutureScore = arena.Get(h).Score + fc.Remaining(newCov.Gaps())
	dest.AddRecombining(arena, h)
}

// attachOutgoingEdges registers, for every candidate group not overlapping
// c's coverage, a BackwardsEdge from c into the destination container its
// footprint reaches.
func (e *Engine) attachOutgoingEdges(stacks []*engine.Stack, n int, c *engine.Container, groups []*engine.CandidateGroup) {
	for _, g := range groups {
		if overlapsAny(c.Coverage, g.Footprint) {
			continue
		}
		destCov := c.Coverage
		for _, sp := range g.Footprint {
			destCov = destCov.SetRange(sp)
		}
		count := destCov.CountCovered()
		if count >= len(stacks) || count <= c.Coverage.CountCovered() {
			continue
		}
		if stacks[count] == nil {
			stacks[count] = engine.NewStack(count)
		}
		destContainer := stacks[count].ContainerFor(destCov)
		engine.AttachEdge(destContainer, c, g.Candidates)
	}
}

func overlapsAny(cov bitmap.Bitmap, spans []span.Span) bool {
	for _, s := range spans {
		if cov.Overlaps(s) {
			return true
		}
	}
	return false
}

func bestInStack(arena *hypothesis.Arena, s *engine.Stack) (hypothesis.Handle, bool) {
	if s == nil {
		return hypothesis.NoPredecessor, false
	}
	var best hypothesis.Handle
	var bestScore float64
	found := false
	for _, c := range s.Containers() {
		for _, h := range c.Hyps {
			sc := arena.Get(h).Score
			if !found || sc > bestScore || (sc == bestScore && arena.Get(h).SeqNum < arena.Get(best).SeqNum) {
				best = h
				bestScore = sc
				found = true
			}
		}
	}
	return best, found
}

// NBest walks every hypothesis reachable in the final stack and returns up
// to k distinct derivations ranked by Score descending (spec.md §7
// "n-best list"), including hypotheses recombination dropped from the
// active search but which the Arena still retains.
func NBest(arena *hypothesis.Arena, k int) []Result {
	type scored struct {
		h     hypothesis.Handle
		score float64
		seq   int
	}
	n := arena.Get(arena.Seed()).Coverage.N()
	var all []scored
	for i := 0; i < arena.Len(); i++ {
		h := hypothesis.Handle(i)
		hv := arena.Get(h)
		if hv.Coverage.CountCovered() != n {
			continue
		}
		all = append(all, scored{h: h, score: hv.Score, seq: hv.SeqNum})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].seq < all[j].seq
	})
	if k > len(all) {
		k = len(all)
	}
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		hv := arena.Get(all[i].h)
		out[i] = Result{TargetWords: hv.TargetWords, Score: hv.Score, Handle: all[i].h, Arena: arena}
	}
	return out
}
