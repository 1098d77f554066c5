// Package translator wraps internal/decoder/search.Engine with tokenization
// and n-best extraction, exposing the single-sentence translate operation
// that cmd/decoder's HTTP handler, queue consumer, RPC server and
// translator pool all call into.
package translator

import (
	"context"
	"log/slog"

	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/tokenizer"
)

// Output is one translated sentence plus its n-best derivations.
type Output struct {
	TargetWords []string
	Score       float64
	NBest       []search.Result
}

// Translator decodes raw source text against a phrase table.
type Translator struct {
	Table  phrasetable.Lookuper
	Chain  ChainBuilder
	Config search.Config
	logger *slog.Logger
}

// ChainBuilder constructs the feature chain used for every decode. It is a
// function rather than a stored *feature.Chain so callers can rebuild the
// chain (e.g. after a weight reload) without reconstructing the Translator.
type ChainBuilder func() *feature.Chain

// New builds a Translator over table using cfg and chainFn. table is
// typically a *phrasetable.MemoryTable in tests or a *store.Store merging
// in-memory and on-disk segments in production.
func New(table phrasetable.Lookuper, chainFn ChainBuilder, cfg search.Config) *Translator {
	return &Translator{
		Table:  table,
		Chain:  chainFn,
		Config: cfg,
		logger: slog.Default().With("component", "translator"),
	}
}

// Translate tokenizes text and runs cube-pruning beam search, returning the
// 1-best translation and, when nbest > 1, up to nbest ranked derivations
// (the 1-best among them, first).
func (t *Translator) Translate(ctx context.Context, text string, nbest int) Output {
	sentence := tokenizer.Tokenize(text)
	src := phrasetable.NewSentenceSource(t.Table, sentence.Words)
	engine := search.NewEngine(src, t.Chain(), t.Config)

	result := engine.Decode(ctx, search.Sentence{
		Words:                sentence.Words,
		PunctuationPositions: sentence.PunctuationPositions,
	})

	out := Output{TargetWords: result.TargetWords, Score: result.Score}
	if nbest > 1 && result.Arena != nil {
		out.NBest = search.NBest(result.Arena, nbest)
	}
	t.logger.Debug("translated sentence",
		"source_len", len(sentence.Words),
		"target_len", len(result.TargetWords),
		"score", result.Score,
	)
	return out
}
