package service

import "errors"

var (
	// ErrNotFound means the document does not exist within the tenant.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyIndexing means a sync is in flight; the request changed nothing.
	ErrAlreadyIndexing = errors.New("document sync already in progress")
	// ErrRetryLimit means the document exhausted its sync retry budget.
	ErrRetryLimit = errors.New("document sync retry limit reached")
	// ErrConflict means the document's status changed under a concurrent
	// operation before anything was modified; the caller may retry.
	ErrConflict = errors.New("document state changed concurrently")
	// ErrPartialDelete means the document row survives because the index or
	// object removal did not complete; the record stays visible until the
	// reconciler finishes the job.
	ErrPartialDelete = errors.New("document delete partially completed")
	// ErrInvalidQuery means the query was empty or malformed.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRetrievalUnavailable means the index backend could not be reached.
	ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")
	// ErrGenerationRejected means the completion provider declined the prompt.
	ErrGenerationRejected = errors.New("generation rejected")
)
