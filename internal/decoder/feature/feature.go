// Package feature implements the decoder's pluggable Feature Function
// contract (spec.md §5): stateless scorers invoked whenever a hypothesis is
// extended, each contributing one weighted term to the hypothesis score.
//
// The registry/interface shape is grounded on internal/searcher/ranker's
// Scorer interface in the teacher repo, generalized from a single
// document-ranking signal to an ordered chain of independently weighted
// scorers.
package feature

import (
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Context carries everything a Function needs to score one extension of a
// hypothesis by one translation option, without giving it access to mutate
// any decoder state (spec.md §5 "feature functions are pure").
type Context struct {
	// SourceLen is the sentence length in words.
	SourceLen int
	// PrevEnd is the source end-position of the predecessor hypothesis's
	// last translated span, or -1 if the predecessor is the empty seed.
	PrevEnd int
	// NewSpan is the source span covered by the option being applied.
	NewSpan span.Span
	// PrevTargetWords is the predecessor's target output, for scorers that
	// need target-side context (e.g. a language-model continuity feature).
	// The engine passes the predecessor's full output; a scorer reads only
	// the trailing words it needs.
	PrevTargetWords []string
	// NewTargetWords are the target words contributed by the option being
	// applied.
	NewTargetWords []string
	// PhraseScore is the pre-computed phrase-table score (option.Option's
	// PreScore, already a dot product against the phrase-table's own
	// weight sub-vector) for the option or linked group being applied.
	PhraseScore float64
}

// Function is one scoring term. Score returns the (unweighted) contribution
// of applying ctx.NewSpan/NewTargetWords on top of the predecessor
// described by the rest of ctx; the engine multiplies it by the function's
// configured weight and adds it to the hypothesis's running score.
type Function interface {
	// Name identifies the feature for configuration and logging.
	Name() string
	// Score computes this feature's contribution for one extension.
	Score(ctx Context) float64
}

// Weighted pairs a Function with its log-linear model weight (spec.md §5
// "every feature function carries exactly one scalar weight").
type Weighted struct {
	Function Function
	Weight   float64
}

// Chain is an ordered, immutable set of weighted feature functions applied
// together on every hypothesis extension.
type Chain struct {
	functions []Weighted
}

// NewChain builds a Chain from the given weighted functions, in the order
// they should be evaluated. Evaluation order only affects logging/tracing;
// the total score is order-independent (plain summation).
func NewChain(functions ...Weighted) *Chain {
	fs := make([]Weighted, len(functions))
	copy(fs, functions)
	return &Chain{functions: fs}
}

// Score evaluates every function in the chain against ctx and returns the
// weighted sum, the value added to a hypothesis's cumulative score when it
// is extended by one translation option (spec.md §4.2 "Extend").
func (c *Chain) Score(ctx Context) float64 {
	var total float64
	for _, wf := range c.functions {
		total += wf.Weight * wf.Function.Score(ctx)
	}
	return total
}

// Breakdown evaluates every function individually, returning one entry per
// function in chain order. Used for n-best list feature dumps (spec.md §7).
func (c *Chain) Breakdown(ctx Context) []ScoreEntry {
	out := make([]ScoreEntry, len(c.functions))
	for i, wf := range c.functions {
		raw := wf.Function.Score(ctx)
		out[i] = ScoreEntry{Name: wf.Function.Name(), Raw: raw, Weighted: raw * wf.Weight}
	}
	return out
}

// ScoreEntry is one named feature's contribution, used in Breakdown output.
type ScoreEntry struct {
	Name     string
	Raw      float64
	Weighted float64
}

// PhraseScoreFeature passes through the pre-computed phrase-table score
// carried on Context.PhraseScore (spec.md §3's translation option score
// vector, already reduced to a scalar by option.Collect).
type PhraseScoreFeature struct{}

func (PhraseScoreFeature) Name() string { return "phrase_score" }

func (PhraseScoreFeature) Score(ctx Context) float64 { return ctx.PhraseScore }

// DistortionPenaltyFeature penalizes reordering distance between the
// predecessor's last covered position and the new span's start, matching
// Moses's `d(x) = -abs(prevEnd + 1 - newStart)` linear distortion model
// (original_source/.../DistortionScoreProducer, ported in spirit).
type DistortionPenaltyFeature struct{}

func (DistortionPenaltyFeature) Name() string { return "distortion_penalty" }

func (DistortionPenaltyFeature) Score(ctx Context) float64 {
	expected := ctx.PrevEnd + 1
	gap := ctx.NewSpan.Start - expected
	if gap < 0 {
		gap = -gap
	}
	return -float64(gap)
}

// NGramContinuityFeature rewards reuse of the predecessor's trailing target
// word as the first word of the new phrase, a cheap stand-in for a real
// n-gram language model's boundary score (spec.md §5 names "language model
// continuity" as an example feature but leaves scoring unspecified).
type NGramContinuityFeature struct{}

func (NGramContinuityFeature) Name() string { return "ngram_continuity" }

func (NGramContinuityFeature) Score(ctx Context) float64 {
	if len(ctx.PrevTargetWords) == 0 || len(ctx.NewTargetWords) == 0 {
		return 0
	}
	prev := ctx.PrevTargetWords[len(ctx.PrevTargetWords)-1]
	next := ctx.NewTargetWords[0]
	if prev == next {
		return 1
	}
	return 0
}

// WordPenaltyFeature counts target words contributed, letting the model
// learn a preference for shorter or longer output (Moses's canonical word
// penalty feature).
type WordPenaltyFeature struct{}

func (WordPenaltyFeature) Name() string { return "word_penalty" }

func (WordPenaltyFeature) Score(ctx Context) float64 {
	return -float64(len(ctx.NewTargetWords))
}
