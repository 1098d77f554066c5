// Package proto defines the shared message types used for internal RPC
// communication between services in the cube-pruning decoder platform.
//
// These types are hand-written for zero-dependency usage; the repository
// has no .proto sources and nothing here is generated.
//
// The hand-written types use JSON struct tags for serialization over the
// platform's lightweight JSON-over-TCP RPC layer (see pkg/grpc).
package proto

// ---------- Common ----------

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Decode ----------

// DecodeRequest is the input to the Decode RPC: one tokenized source
// sentence plus an optional n-best size override.
type DecodeRequest struct {
	RequestID            string   `json:"request_id"`
	SourceWords          []string `json:"source_words"`
	PunctuationPositions []bool   `json:"punctuation_positions,omitempty"`
	NBestSize            int32    `json:"nbest_size,omitempty"`
}

// DecodeResponse is the output of the Decode RPC.
type DecodeResponse struct {
	RequestID   string       `json:"request_id"`
	TargetWords []string     `json:"target_words"`
	Score       float64      `json:"score"`
	NBest       []Derivation `json:"nbest,omitempty"`
	LatencyMs   int64        `json:"latency_ms"`
	CacheHit    bool         `json:"cache_hit"`
}

// Derivation is one ranked entry in an n-best list.
type Derivation struct {
	TargetWords []string `json:"target_words"`
	Score       float64  `json:"score"`
}

// ---------- Phrase table ----------

// ReloadPhraseTableRequest triggers a reload of the on-disk phrase table.
type ReloadPhraseTableRequest struct {
	DataDir string `json:"data_dir"`
}

// ReloadPhraseTableResponse confirms the reload and reports entry counts.
type ReloadPhraseTableResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EntryCount int64  `json:"entry_count"`
}

// StatsRequest optionally filters phrase table statistics by segment
// (0 means all segments).
type StatsRequest struct {
	SegmentID int32 `json:"segment_id"`
}

// StatsResponse contains phrase-table-level statistics.
type StatsResponse struct {
	TotalEntries   int64         `json:"total_entries"`
	TotalSegments  int64         `json:"total_segments"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
	Segments       []SegmentStat `json:"segments,omitempty"`
}

// SegmentStat holds per-segment statistics.
type SegmentStat struct {
	SegmentID  int32 `json:"segment_id"`
	EntryCount int64 `json:"entry_count"`
	SizeBytes  int64 `json:"size_bytes"`
}

// ---------- Ingestion / analytics ----------

// IngestEvent is published to Kafka when a sentence enters the decode
// pipeline from the gateway or a batch ingestion job.
type IngestEvent struct {
	RequestID   string   `json:"request_id"`
	SourceWords []string `json:"source_words"`
	SubmittedAt int64    `json:"submitted_at"`
}

// DecodeCompleteEvent is published to Kafka once a sentence finishes
// decoding, for downstream analytics aggregation.
type DecodeCompleteEvent struct {
	RequestID   string  `json:"request_id"`
	Score       float64 `json:"score"`
	LatencyMs   int64   `json:"latency_ms"`
	StacksUsed  int32   `json:"stacks_used"`
	CacheHit    bool    `json:"cache_hit"`
	CompletedAt int64   `json:"completed_at"`
}

// AnalyticsSummary is a periodic aggregate over recent DecodeCompleteEvents.
type AnalyticsSummary struct {
	WindowStart  int64   `json:"window_start"`
	WindowEnd    int64   `json:"window_end"`
	DecodeCount  int64   `json:"decode_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	AvgScore     float64 `json:"avg_score"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}
