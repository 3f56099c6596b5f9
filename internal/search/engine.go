// Package search provides the retrieval index backends. One physically
// separate index exists per index domain; a tenant's queries only ever reach
// the index of the domain its claims resolved to.
package search

import (
	"context"
	"errors"
)

// ErrUnknownDomain is returned when an operation targets a domain that was
// not configured at startup.
var ErrUnknownDomain = errors.New("unknown index domain")

// Document is the unit stored in an index.
type Document struct {
	DocID    string `json:"doc_id"`
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Hit is a single retrieval result.
type Hit struct {
	DocID   string
	Title   string
	Snippet string
	Score   float64
}

// Engine indexes and queries documents. Implementations must apply the
// tenant id as a query predicate even though domains are already separate
// indexes, so a mis-routed query still returns nothing foreign.
type Engine interface {
	// Index adds or replaces a document in the given domain's index.
	Index(ctx context.Context, domain string, doc Document) error
	// Delete removes a document from the given domain's index. Deleting a
	// document that is not indexed is not an error.
	Delete(ctx context.Context, domain, docID string) error
	// Query returns up to limit hits for the tenant's query, best first.
	Query(ctx context.Context, domain, tenantID, query string, limit int) ([]Hit, error)
	// Close releases index resources.
	Close() error
}

const snippetLen = 200

// makeSnippet returns the leading portion of content, cut at a rune
// boundary so multi-byte text is never split mid-character.
func makeSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLen {
		return content
	}
	return string(runes[:snippetLen])
}
