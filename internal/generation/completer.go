// Package generation wraps the external completion service behind a small
// interface so callers can reason about transient and permanent failures.
package generation

import (
	"context"
	"errors"
	"fmt"
)

// Completer produces one completion per call. Implementations do not retry;
// callers decide the retry policy based on IsRetryable.
type Completer interface {
	Complete(ctx context.Context, modelID, prompt string) (*Result, error)
}

// ErrRejected is returned when the provider declines to answer the prompt.
// Rejections are permanent: retrying the same prompt will not help.
var ErrRejected = errors.New("generation request rejected by provider")

// Result is a single completion with its token accounting.
type Result struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// ProviderError describes a failed provider call.
type ProviderError struct {
	StatusCode int
	Message    string
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error is a transient provider failure
// worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
