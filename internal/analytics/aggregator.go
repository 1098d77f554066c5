package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/latticemt/cubedecoder/pkg/kafka"
)

// AggregatedStats is a point-in-time rollup of decode traffic since the
// aggregator started. Counters live in memory only and start from zero.
type AggregatedStats struct {
	TotalDecodes         int64        `json:"total_decodes"`
	TotalIngested        int64        `json:"total_ingested"`
	CacheHits            int64        `json:"cache_hits"`
	CacheMisses          int64        `json:"cache_misses"`
	NoTranslationCount   int64        `json:"no_translation_count"`
	AvgLatencyMs         float64      `json:"avg_latency_ms"`
	P50LatencyMs         int64        `json:"p50_latency_ms"`
	P95LatencyMs         int64        `json:"p95_latency_ms"`
	P99LatencyMs         int64        `json:"p99_latency_ms"`
	AvgScore             float64      `json:"avg_score"`
	TopSourceSentences   []TextCount  `json:"top_source_sentences"`
	FailedSentences      []TextCount  `json:"failed_sentences"`
	DecodesPerMinute     float64      `json:"decodes_per_minute"`
}

// TextCount pairs a source sentence with an occurrence count.
type TextCount struct {
	Text  string `json:"text"`
	Count int64  `json:"count"`
}

// Aggregator consumes decode/ingest events off Kafka and maintains running
// counters and latency/score histories in memory.
type Aggregator struct {
	mu                  sync.RWMutex
	totalDecodes        atomic.Int64
	totalIngested       atomic.Int64
	cacheHits           atomic.Int64
	cacheMisses         atomic.Int64
	noTranslationCount  atomic.Int64
	latencies           []int64
	scores              []float64
	sourceCounts        map[string]int64
	failedCounts        map[string]int64
	startTime           time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator that reads events from consumer.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latencies:    make([]int64, 0, 10000),
		scores:       make([]float64, 0, 10000),
		sourceCounts: make(map[string]int64),
		failedCounts: make(map[string]int64),
		startTime:    time.Now(),
		consumer:     consumer,
		logger:       slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start begins consuming events. It blocks until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("analytics aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent returns a kafka.MessageHandler that feeds decoded events into
// agg. A message whose type is EventIngest is recorded as an IngestEvent,
// any other message as a DecodeEvent; a message that does not decode is
// dropped with a logged error.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DecodeEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event",
				"error", err,
			)
			return nil
		}
		if event.Type == EventIngest {
			ingestEvent, err := kafka.DecodeJSON[IngestEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode analytics event",
					"error", err,
				)
				return nil
			}
			agg.recordIngestEvent(ingestEvent)
			return nil
		}
		agg.recordDecodeEvent(event)
		return nil
	}
}

func (a *Aggregator) recordDecodeEvent(event DecodeEvent) {
	a.totalDecodes.Add(1)

	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}

	if event.Type == EventNoTransOpt {
		a.noTranslationCount.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.scores = append(a.scores, event.Score)
	a.sourceCounts[event.SourceText]++
	if event.Type == EventNoTransOpt {
		a.failedCounts[event.SourceText]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordIngestEvent(event IngestEvent) {
	a.totalIngested.Add(1)
}

// Stats computes a snapshot of aggregated statistics from the current
// counters and history buffers.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalDecodes:       a.totalDecodes.Load(),
		TotalIngested:      a.totalIngested.Load(),
		CacheHits:          a.cacheHits.Load(),
		CacheMisses:        a.cacheMisses.Load(),
		NoTranslationCount: a.noTranslationCount.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if len(a.scores) > 0 {
		var sum float64
		for _, s := range a.scores {
			sum += s
		}
		stats.AvgScore = sum / float64(len(a.scores))
	}
	stats.TopSourceSentences = topN(a.sourceCounts, 10)
	stats.FailedSentences = topN(a.failedCounts, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.DecodesPerMinute = float64(stats.TotalDecodes) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []TextCount {
	result := make([]TextCount, 0, len(counts))
	for text, count := range counts {
		result = append(result, TextCount{Text: text, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
