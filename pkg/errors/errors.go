package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoTranslationOptions = errors.New("no translation options cover the sentence")
	ErrSentenceTooLong      = errors.New("sentence exceeds maximum decodable length")
	ErrModelUnavailable     = errors.New("phrase table or language model unavailable")
	ErrOutOfResources       = errors.New("decode exhausted its stack or pop budget")
	ErrInvalidInput         = errors.New("invalid input")
	ErrIdempotencyConflict  = errors.New("idempotency key already used")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNoTranslationOptions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSentenceTooLong), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrModelUnavailable), errors.Is(err, ErrOutOfResources), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}

}
