// Command decoder runs the main decode worker: a synchronous HTTP decode
// endpoint plus a Kafka consumer that drains queued decode requests from
// cmd/ingestion into the same translator pool, grounded on the merged
// cmd/searcher (HTTP serving, cache, analytics wiring) and cmd/indexer
// (Kafka consumer, graceful drain-before-shutdown) mains.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latticemt/cubedecoder/internal/analytics"
	"github.com/latticemt/cubedecoder/internal/cache"
	"github.com/latticemt/cubedecoder/internal/decoder/feature"
	"github.com/latticemt/cubedecoder/internal/decoder/search"
	"github.com/latticemt/cubedecoder/internal/ingestion"
	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/phrasetable/store"
	"github.com/latticemt/cubedecoder/internal/tokenizer"
	"github.com/latticemt/cubedecoder/internal/translator"
	"github.com/latticemt/cubedecoder/internal/translator/handler"
	"github.com/latticemt/cubedecoder/internal/translator/pool"
	"github.com/latticemt/cubedecoder/pkg/config"
	pkgrpc "github.com/latticemt/cubedecoder/pkg/grpc"
	"github.com/latticemt/cubedecoder/pkg/health"
	"github.com/latticemt/cubedecoder/pkg/kafka"
	"github.com/latticemt/cubedecoder/pkg/logger"
	"github.com/latticemt/cubedecoder/pkg/metrics"
	"github.com/latticemt/cubedecoder/pkg/middleware"
	"github.com/latticemt/cubedecoder/pkg/postgres"
	"github.com/latticemt/cubedecoder/pkg/proto"
	pkgredis "github.com/latticemt/cubedecoder/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting decoder service", "port", cfg.Server.Port, "pool_workers", cfg.Decoder.PoolWorkers)

	phraseStore, err := store.Open(cfg.PhraseTable, phrasetable.NewMemoryTable())
	if err != nil {
		slog.Error("failed to open phrase table store", "error", err)
		os.Exit(1)
	}
	defer phraseStore.Close()
	slog.Info("phrase table store opened",
		"data_dir", cfg.PhraseTable.DataDir,
		"segments", phraseStore.SegmentCount(),
		"entries", phraseStore.EntryCount(),
	)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var decodeCache *cache.DecodeCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, decode caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		decodeCache = cache.New(redisClient, cfg.Redis)
		slog.Info("decode cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	searchCfg := buildSearchConfig(cfg.Decoder)
	chainFn := buildChainFn(cfg.Decoder.Weights)
	t := translator.New(phraseStore, chainFn, searchCfg)
	workerPool := pool.New(t, cfg.Decoder.PoolWorkers)

	checker := health.NewChecker()
	checker.Register("phrase_table", func(ctx context.Context) health.ComponentHealth {
		if phraseStore.EntryCount() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d entries", phraseStore.EntryCount())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "phrase table is empty"}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(t, decodeCache, collector, cfg.Decoder.NBestSize)

	// rpcServer exposes the same decode and phrase-table operations as the
	// HTTP endpoints over the platform's internal JSON-over-TCP RPC layer,
	// for cmd/phraseloader to trigger a reload without an HTTP dependency.
	rpcServer := newDecoderRPCServer(t, phraseStore, checker, cfg.Decoder.NBestSize)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Decoder.RPCPort)
		if err := rpcServer.Serve(addr); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	slog.Info("decoder rpc server listening", "addr", fmt.Sprintf(":%d", cfg.Decoder.RPCPort))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	// drainConsumer runs decode requests queued by cmd/ingestion through the
	// same translator pool backing the HTTP endpoint, writing the audit log
	// status and publishing a completion event per request.
	drain := newDrainConsumer(db, t, workerPool, collector, cfg)
	go func() {
		if err := drain.Start(ctx); err != nil {
			slog.Error("decode consumer error", "error", err)
		}
	}()
	slog.Info("consuming queued decode requests", "topic", cfg.Kafka.Topics.DecodeRequests)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/decode", h.Decode)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	tracingSampleRate := 0.0
	if cfg.Tracing.Enabled {
		tracingSampleRate = cfg.Tracing.SampleRate
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Tracing(tracingSampleRate)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		drain.Close()
		rpcServer.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("decoder service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("decoder service stopped")
}

// buildSearchConfig copies the decoder's search tunables out of the
// top-level config into internal/decoder/search.Config.
func buildSearchConfig(d config.DecoderConfig) search.Config {
	return search.Config{
		MaxStackSize:           d.MaxStackSize,
		BeamWidth:              d.BeamWidth,
		StackDiversity:         d.StackDiversity,
		CubePruningPopLimit:    d.CubePruningPopLimit,
		CubePruningDiversity:   d.CubePruningDiversity,
		MaxDistortion:          d.MaxDistortion,
		MonotoneAtPunctuation:  d.MonotoneAtPunctuation,
		MaxPhraseLength:        d.MaxPhraseLength,
		MaxTransOptPerCoverage: d.MaxTransOptPerCoverage,
		Weights:                d.Weights,
	}
}

// defaultFeatures lists the feature chain's functions in a fixed order;
// cfg.Decoder.Weights is a parallel slice of weights in this same order.
var defaultFeatures = []feature.Function{
	feature.PhraseScoreFeature{},
	feature.DistortionPenaltyFeature{},
	feature.NGramContinuityFeature{},
	feature.WordPenaltyFeature{},
}

// buildChainFn returns a translator.ChainBuilder pairing defaultFeatures
// with weights, one per function, falling back to a weight of 1 for any
// feature beyond the end of weights.
func buildChainFn(weights []float64) translator.ChainBuilder {
	return func() *feature.Chain {
		weighted := make([]feature.Weighted, len(defaultFeatures))
		for i, fn := range defaultFeatures {
			w := 1.0
			if i < len(weights) {
				w = weights[i]
			}
			weighted[i] = feature.Weighted{Function: fn, Weight: w}
		}
		return feature.NewChain(weighted...)
	}
}

// drainConsumer wires a kafka.Consumer on cfg.Kafka.Topics.DecodeRequests
// into the translator pool, updating the decode_requests audit row and
// publishing a analytics.DecodeEvent for each request it completes.
type drainConsumer struct {
	db        *postgres.Client
	t         *translator.Translator
	pool      *pool.Pool
	collector *analytics.Collector
	nbest     int
	consumer  *kafka.Consumer
	logger    *slog.Logger
}

func newDrainConsumer(db *postgres.Client, t *translator.Translator, p *pool.Pool, collector *analytics.Collector, cfg *config.Config) *drainConsumer {
	d := &drainConsumer{
		db:        db,
		t:         t,
		pool:      p,
		collector: collector,
		nbest:     cfg.Decoder.NBestSize,
		logger:    slog.Default().With("component", "decode-consumer"),
	}
	d.consumer = kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DecodeRequests, d.handle)
	return d
}

func (d *drainConsumer) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}

func (d *drainConsumer) Close() error {
	return d.consumer.Close()
}

func (d *drainConsumer) handle(ctx context.Context, key []byte, value []byte) error {
	start := time.Now()
	event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
	if err != nil {
		d.logger.Error("failed to decode ingest event", "error", err)
		return err
	}

	out := d.t.Translate(ctx, event.Text, d.nbest)
	latencyMs := time.Since(start).Milliseconds()

	if err := d.markComplete(ctx, event.RequestID, out); err != nil {
		d.logger.Error("failed to update decode request status", "request_id", event.RequestID, "error", err)
		return err
	}

	if d.collector != nil {
		d.collector.Track(analytics.DecodeEvent{
			Type:        analytics.EventDecode,
			RequestID:   event.RequestID,
			SourceText:  event.Text,
			SourceWords: len(tokenizer.Tokenize(event.Text).Words),
			Score:       out.Score,
			LatencyMs:   latencyMs,
			Timestamp:   time.Now().UTC(),
		})
	}

	d.logger.Info("decode request completed",
		"request_id", event.RequestID,
		"score", out.Score,
		"latency_ms", latencyMs,
	)
	return nil
}

func (d *drainConsumer) markComplete(ctx context.Context, requestID string, out translator.Output) error {
	return d.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE decode_requests SET status = 'COMPLETE', decoded_at = now() WHERE id = $1`,
			requestID,
		)
		return err
	})
}

// newDecoderRPCServer registers the Decode, PhraseTable, and Health RPC
// methods pkg/grpc.Client dials into, grounded on the same phraseStore,
// translator, and health.Checker the HTTP handlers use.
func newDecoderRPCServer(t *translator.Translator, phraseStore *store.Store, checker *health.Checker, defaultNBest int) *pkgrpc.Server {
	s := pkgrpc.NewServer()

	s.Register("Decode.Decode", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.DecodeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding request: %w", err)
		}
		nbest := defaultNBest
		if req.NBestSize > 0 {
			nbest = int(req.NBestSize)
		}
		start := time.Now()
		out := t.Translate(ctx, joinWords(req.SourceWords), nbest)
		resp := proto.DecodeResponse{
			RequestID:   req.RequestID,
			TargetWords: out.TargetWords,
			Score:       out.Score,
			LatencyMs:   time.Since(start).Milliseconds(),
		}
		for _, r := range out.NBest {
			resp.NBest = append(resp.NBest, proto.Derivation{TargetWords: r.TargetWords, Score: r.Score})
		}
		return resp, nil
	})

	s.Register("PhraseTable.Reload", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.ReloadPhraseTableRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding request: %w", err)
		}
		newSegments, err := phraseStore.Reload()
		if err != nil {
			return proto.ReloadPhraseTableResponse{Success: false, Message: err.Error()}, nil
		}
		return proto.ReloadPhraseTableResponse{
			Success:    true,
			Message:    fmt.Sprintf("loaded %d new segments", newSegments),
			EntryCount: phraseStore.EntryCount(),
		}, nil
	})

	s.Register("PhraseTable.Stats", func(ctx context.Context, raw json.RawMessage) (any, error) {
		return proto.StatsResponse{
			TotalEntries:  phraseStore.EntryCount(),
			TotalSegments: int64(phraseStore.SegmentCount()),
		}, nil
	})

	s.Register("Health.Check", func(ctx context.Context, raw json.RawMessage) (any, error) {
		report := checker.Run(ctx)
		status := "SERVING"
		if report.Status != health.StatusUp {
			status = "NOT_SERVING"
		}
		return proto.HealthCheckResponse{Status: status}, nil
	})

	return s
}

// joinWords reassembles tokenized source words back into text for
// translator.Translate, which re-tokenizes internally; callers that already
// hold a token slice (as the RPC wire format does) pay that cost once.
func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
