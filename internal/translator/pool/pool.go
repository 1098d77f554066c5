// Package pool runs sentence-level decode parallelism: many sentences
// translated concurrently against one read-only Translator, grounded on
// internal/searcher/executor.ShardedExecutor's fanOut (one goroutine per
// unit of work, fixed-size result slice, WaitGroup barrier). Sentences never
// share decoder state (internal/decoder/search.Engine.Decode allocates a
// fresh Arena per call), so this is plain data parallelism with no locking
// inside the hot path.
package pool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/latticemt/cubedecoder/internal/translator"
)

// Job is one sentence to translate, identified by RequestID for result
// correlation.
type Job struct {
	RequestID string
	Text      string
	NBest     int
}

// Result pairs a Job's RequestID with its translator.Output.
type Result struct {
	RequestID string
	Output    translator.Output
}

// Pool bounds how many sentences decode concurrently.
type Pool struct {
	t       *translator.Translator
	workers int
	logger  *slog.Logger
}

// New builds a Pool that runs up to workers sentences concurrently.
func New(t *translator.Translator, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		t:       t,
		workers: workers,
		logger:  slog.Default().With("component", "translator-pool"),
	}
}

// TranslateAll runs every job to completion and returns results in the same
// order as jobs, regardless of completion order.
func (p *Pool) TranslateAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			out := p.t.Translate(ctx, j.Text, j.NBest)
			results[idx] = Result{RequestID: j.RequestID, Output: out}
		}(i, job)
	}
	wg.Wait()
	return results
}

// Utilization reports the fraction of worker slots currently occupied,
// for the translator_pool_utilization gauge.
func (p *Pool) Utilization(inFlight int) float64 {
	if p.workers == 0 {
		return 0
	}
	u := float64(inFlight) / float64(p.workers)
	if u > 1 {
		u = 1
	}
	return u
}
