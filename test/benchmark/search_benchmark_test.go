package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/translator"
	"github.com/latticemt/cubedecoder/internal/translator/pool"
)

// BenchmarkFeatureChainScore measures the cost of scoring one hypothesis
// extension through the full default feature chain, the hot inner loop of
// cube-pruning candidate generation.
func BenchmarkFeatureChainScore(b *testing.B) {
	chain := benchChain()
	ctx := feature.Context{
		SourceLen:       12,
		PrevEnd:         3,
		NewSpan:         span.Span{Start: 4, End: 6},
		PrevTargetWords: []string{"the", "black"},
		NewTargetWords:  []string{"cat", "sleeps"},
		PhraseScore:     -1.2,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		score := chain.Score(ctx)
		_ = score
	}
}

// BenchmarkFeatureChainBreakdown measures the per-feature score breakdown
// used for tracing/debugging, which allocates a slice unlike Score.
func BenchmarkFeatureChainBreakdown(b *testing.B) {
	chain := benchChain()
	ctx := feature.Context{
		SourceLen:      12,
		PrevEnd:        3,
		NewSpan:        span.Span{Start: 4, End: 6},
		NewTargetWords: []string{"cat", "sleeps"},
		PhraseScore:    -1.2,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries := chain.Breakdown(ctx)
		_ = entries
	}
}

// BenchmarkPoolTranslateAll measures fan-out throughput of the translator
// pool across a batch of independent sentences, for varying worker counts.
func BenchmarkPoolTranslateAll(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	words := []string{"le", "chat", "noir", "mange", "la", "souris", "grise"}
	for _, w := range words {
		tbl.Add(w, phrasetable.Entry{TargetPhrase: w + "_en", Scores: []float64{1}})
	}

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1, 1, 1}
	tr := translator.New(tbl, benchChain, cfg)

	jobs := make([]pool.Job, 64)
	for i := range jobs {
		jobs[i] = pool.Job{
			RequestID: fmt.Sprintf("req-%d", i),
			Text:      "le chat noir mange la souris grise",
			NBest:     1,
		}
	}

	workerCounts := []int{1, 4, 16, 64}
	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			p := pool.New(tr, workers)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				results := p.TranslateAll(ctx, jobs)
				_ = results
			}
		})
	}
}

// BenchmarkEngineDecode measures end-to-end cube-pruning search latency
// directly against internal/decoder/search.Engine, bypassing translator's
// tokenization/n-best formatting to isolate the search algorithm itself.
func BenchmarkEngineDecode(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	words := []string{"le", "chat", "noir", "mange", "la", "souris", "grise", "rapidement"}
	for _, w := range words {
		tbl.Add(w, phrasetable.Entry{TargetPhrase: w + "_en", Scores: []float64{1}})
	}
	tbl.Add("le chat", phrasetable.Entry{TargetPhrase: "the cat", Scores: []float64{1.5}})

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1, 1, 1}

	lengths := []int{2, 4, 6, 8}
	for _, n := range lengths {
		b.Run(fmt.Sprintf("words_%d", n), func(b *testing.B) {
			wordSeq := make([]string, n)
			for i := 0; i < n; i++ {
				wordSeq[i] = words[i%len(words)]
			}
			src := phrasetable.NewSentenceSource(tbl, wordSeq)
			eng := search.NewEngine(src, benchChain(), cfg)
			sentence := search.Sentence{Words: wordSeq}
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result := eng.Decode(ctx, sentence)
				_ = result
			}
		})
	}
}
