// Package ingestion defines the request/response types and Kafka event
// schemas used by the sentence ingestion pipeline.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint:
// one source sentence to queue for decoding.
type IngestRequest struct {
	Text           string `json:"text"`
	IdempotencyKey string `json:"idempotency_key"`
}

// IngestResponse is returned to the caller after a sentence is accepted.
type IngestResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// IngestEvent is the Kafka message payload produced after a sentence is
// persisted and ready for decoding.
type IngestEvent struct {
	RequestID  string    `json:"request_id"`
	Text       string    `json:"text"`
	IngestedAt time.Time `json:"ingested_at"`
}
