// Package benchmark contains Go benchmarks for the in-memory phrase table,
// the tokenizer, and the cube-pruning decode pipeline, measuring throughput
// and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/translator"
)

func benchChain() *feature.Chain {
	return feature.NewChain(
		feature.Weighted{Function: feature.PhraseScoreFeature{}, Weight: 1.0},
		feature.Weighted{Function: feature.DistortionPenaltyFeature{}, Weight: 0.5},
		feature.Weighted{Function: feature.WordPenaltyFeature{}, Weight: 0.1},
	)
}

// BenchmarkMemoryTableAdd measures per-entry insert throughput into the
// in-memory phrase table.
func BenchmarkMemoryTableAdd(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		source := fmt.Sprintf("phrase %d", i)
		tbl.Add(source, phrasetable.Entry{TargetPhrase: "translation", Scores: []float64{1.0, 0.5}})
	}
}

// BenchmarkMemoryTableLookup measures single-phrase lookup latency over
// 10 000 loaded phrases.
func BenchmarkMemoryTableLookup(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	for i := 0; i < 10000; i++ {
		source := fmt.Sprintf("phrase %d", i)
		tbl.Add(source, phrasetable.Entry{TargetPhrase: "translation", Scores: []float64{1.0}})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries := tbl.LookupPhrase("phrase 5000")
		_ = entries
	}
}

// BenchmarkMemoryTableLookupParallel measures concurrent read throughput.
func BenchmarkMemoryTableLookupParallel(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	for i := 0; i < 10000; i++ {
		source := fmt.Sprintf("phrase %d", i)
		tbl.Add(source, phrasetable.Entry{TargetPhrase: "translation", Scores: []float64{1.0}})
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			entries := tbl.LookupPhrase("phrase 5000")
			_ = entries
		}
	})
}

// BenchmarkMemoryTableSnapshot measures the cost of snapshotting the table
// before a segment flush.
func BenchmarkMemoryTableSnapshot(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	for i := 0; i < 5000; i++ {
		source := fmt.Sprintf("phrase %d", i)
		tbl.Add(source, phrasetable.Entry{TargetPhrase: "translation", Scores: []float64{1.0}})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snapshot := tbl.Snapshot()
		_ = snapshot
	}
}

// BenchmarkTranslateShortSentence measures end-to-end decode latency for a
// short monotone sentence against a small phrase table.
func BenchmarkTranslateShortSentence(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	tbl.Add("le chat", phrasetable.Entry{TargetPhrase: "the cat", Scores: []float64{1.5}})
	tbl.Add("le", phrasetable.Entry{TargetPhrase: "the", Scores: []float64{1}})
	tbl.Add("chat", phrasetable.Entry{TargetPhrase: "cat", Scores: []float64{1}})

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1, 1, 1}
	tr := translator.New(tbl, benchChain, cfg)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := tr.Translate(ctx, "le chat", 0)
		_ = out
	}
}

// BenchmarkTranslateVaryingLength measures decode latency as sentence
// length grows, holding the phrase table's branching factor fixed.
func BenchmarkTranslateVaryingLength(b *testing.B) {
	tbl := phrasetable.NewMemoryTable()
	words := []string{"le", "chat", "noir", "mange", "la", "souris", "grise", "rapidement"}
	for _, w := range words {
		tbl.Add(w, phrasetable.Entry{TargetPhrase: w + "_en", Scores: []float64{1}})
	}

	cfg := search.DefaultConfig()
	cfg.Weights = []float64{1, 1, 1}
	tr := translator.New(tbl, benchChain, cfg)
	ctx := context.Background()

	lengths := []int{1, 2, 4, 8}
	for _, n := range lengths {
		b.Run(fmt.Sprintf("words_%d", n), func(b *testing.B) {
			sentence := ""
			for i := 0; i < n; i++ {
				if i > 0 {
					sentence += " "
				}
				sentence += words[i%len(words)]
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				out := tr.Translate(ctx, sentence, 0)
				_ = out
			}
		})
	}
}
