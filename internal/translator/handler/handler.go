// Package handler implements the decoder's synchronous HTTP decode endpoint,
// grounded on internal/searcher/handler.Handler.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/latticemt/cubedecoder/internal/analytics"
	"github.com/latticemt/cubedecoder/internal/cache"
	"github.com/latticemt/cubedecoder/internal/tokenizer"
	"github.com/latticemt/cubedecoder/internal/translator"
	"github.com/latticemt/cubedecoder/pkg/logger"
	"github.com/latticemt/cubedecoder/pkg/middleware"
	"github.com/latticemt/cubedecoder/pkg/tracing"
)

// Translator is the subset of *translator.Translator the handler depends on.
type Translator interface {
	Translate(ctx context.Context, text string, nbest int) translator.Output
}

// Handler serves decode requests over HTTP.
type Handler struct {
	translator Translator
	cache      *cache.DecodeCache
	collector  *analytics.Collector
	maxNBest   int
	logger     *slog.Logger
}

// New builds a decode Handler.
func New(t Translator, decodeCache *cache.DecodeCache, collector *analytics.Collector, maxNBest int) *Handler {
	return &Handler{
		translator: t,
		cache:      decodeCache,
		collector:  collector,
		maxNBest:   maxNBest,
		logger:     slog.Default().With("component", "decode-handler"),
	}
}

type decodeRequestBody struct {
	Text  string `json:"text"`
	NBest int    `json:"nbest"`
}

type decodeResponseBody struct {
	TargetWords []string   `json:"target_words"`
	Score       float64    `json:"score"`
	NBest       [][]string `json:"nbest,omitempty"`
	CacheHit    bool       `json:"cache_hit"`
	LatencyMs   int64      `json:"latency_ms"`
}

// Decode handles POST /api/v1/decode: translate one sentence and return the
// 1-best (and optionally n-best) translation.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req decodeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	nbest := req.NBest
	if nbest > h.maxNBest {
		nbest = h.maxNBest
	}

	words := tokenizer.Tokenize(req.Text).Words
	cacheHit := false
	var entry cache.Entry

	spanCtx, span := tracing.StartChildSpan(ctx, "translator.Translate")
	span.SetAttr("words", len(words))
	if h.cache != nil {
		var err error
		entry, cacheHit, err = h.cache.GetOrCompute(ctx, words, func() (cache.Entry, error) {
			return toEntry(h.translator.Translate(spanCtx, req.Text, nbest)), nil
		})
		if err != nil {
			span.End()
			log.Error("decode failed", "text", req.Text, "error", err)
			h.writeError(w, http.StatusInternalServerError, "decode failed")
			return
		}
	} else {
		entry = toEntry(h.translator.Translate(spanCtx, req.Text, nbest))
	}
	span.SetAttr("score", entry.Score)
	span.End()

	latencyMs := time.Since(start).Milliseconds()
	log.Info("decode completed",
		"text", req.Text,
		"score", entry.Score,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		h.collector.Track(analytics.DecodeEvent{
			Type:        eventType,
			RequestID:   middleware.GetRequestID(ctx),
			SourceText:  req.Text,
			SourceWords: len(words),
			Score:       entry.Score,
			LatencyMs:   latencyMs,
			CacheHit:    cacheHit,
			Timestamp:   time.Now().UTC(),
		})
	}

	h.writeJSON(w, http.StatusOK, decodeResponseBody{
		TargetWords: entry.TargetWords,
		Score:       entry.Score,
		NBest:       entry.NBest,
		CacheHit:    cacheHit,
		LatencyMs:   latencyMs,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toEntry(o translator.Output) cache.Entry {
	e := cache.Entry{TargetWords: o.TargetWords, Score: o.Score}
	for _, r := range o.NBest {
		e.NBest = append(e.NBest, r.TargetWords)
	}
	return e
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
