package analytics

import "time"

type EventType string

const (
	EventDecode     EventType = "decode"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventIngest     EventType = "ingest"
	EventNoTransOpt EventType = "no_translation_options"
)

// DecodeEvent records the outcome of a single sentence decode.
type DecodeEvent struct {
	Type          EventType `json:"type"`
	RequestID     string    `json:"request_id"`
	SourceText    string    `json:"source_text"`
	SourceWords   int       `json:"source_words"`
	Score         float64   `json:"score"`
	StacksUsed    int       `json:"stacks_used"`
	LatencyMs     int64     `json:"latency_ms"`
	CacheHit      bool      `json:"cache_hit"`
	WorkerID      int       `json:"worker_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// IngestEvent records a sentence accepted onto the ingestion pipeline.
type IngestEvent struct {
	Type       EventType `json:"type"`
	RequestID  string    `json:"request_id"`
	WordCount  int       `json:"word_count"`
	SizeBytes  int       `json:"size_bytes"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
