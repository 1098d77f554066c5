// Package validator provides input validation for ingestion requests. It
// enforces sentence length constraints and returns per-field error details.
package validator

import (
	"fmt"
	"strings"

	"github.com/latticemt/cubedecoder/internal/ingestion"
)

const (
	maxTextLength = 4096
	minTextLength = 1
	maxWords      = 200
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks that the sentence text meets the required
// length constraints and returns a ValidationError if not.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	text := strings.TrimSpace(req.Text)
	if len(text) < minTextLength {
		errs["text"] = "text is required and must not be empty"
	} else if len(text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d characters", maxTextLength)
	} else if words := len(strings.Fields(text)); words > maxWords {
		errs["text"] = fmt.Sprintf("text must be at most %d words (got %d)", maxWords, words)
	}
	if req.IdempotencyKey != "" && len(req.IdempotencyKey) > 255 {
		errs["idempotency_key"] = "idempotency key must be at most 255 characters"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
