// Package publisher persists incoming decode requests to PostgreSQL as an
// audit trail and publishes ingest events to Kafka for asynchronous
// decoding. It supports idempotent writes keyed by an optional client-
// supplied idempotency key.
package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/latticemt/cubedecoder/internal/ingestion"
	apperrors "github.com/latticemt/cubedecoder/pkg/errors"
	"github.com/latticemt/cubedecoder/pkg/kafka"
	"github.com/latticemt/cubedecoder/pkg/postgres"
)

// Publisher coordinates request persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer *kafka.Producer) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest persists the request in PostgreSQL and publishes an IngestEvent to
// Kafka. Duplicate idempotency keys are detected and returned without
// re-insertion.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.RequestID,
			)
			return existing, nil
		}
	}

	var requestID string
	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO decode_requests (text, idempotency_key, status)
		VALUES ($1, $2, 'PENDING')
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id`, req.Text, nullableString(req.IdempotencyKey)).Scan(&requestID)
		if err == sql.ErrNoRows {
			return apperrors.New(apperrors.ErrIdempotencyConflict, 409, "idempotency key already in use")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inserting decode request: %w", err)
	}

	event := kafka.Event{
		Key: requestID,
		Value: ingestion.IngestEvent{
			RequestID:  requestID,
			Text:       req.Text,
			IngestedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, request stuck in PENDING",
			"request_id", requestID,
			"error", err,
		)
	}
	return &ingestion.IngestResponse{
		RequestID: requestID,
		Status:    "PENDING",
	}, nil
}

// findByIdempotencyKey checks if a request with the given idempotency key
// already exists and returns its status.
func (p *Publisher) findByIdempotencyKey(ctx context.Context, key string) (*ingestion.IngestResponse, error) {
	var resp ingestion.IngestResponse
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM decode_requests WHERE idempotency_key=$1`, key).Scan(&resp.RequestID, &resp.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
