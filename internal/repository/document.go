package repository

import (
	"context"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

// DocumentRepository defines data access for document lifecycle records.
// No business logic here — strictly persistence operations. Every
// tenant-facing query is scoped by tenant id.
type DocumentRepository interface {
	// Create inserts a new document record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID within a tenant.
	FindByID(ctx context.Context, tenantID, id string) (*model.Document, error)

	// FindByKey returns a document by its object key within a tenant.
	FindByKey(ctx context.Context, tenantID, key string) (*model.Document, error)

	// List returns a paginated list of a tenant's documents and the total count.
	List(ctx context.Context, tenantID string, pq PageQuery) (*PageResult[model.Document], error)

	// TransitionStatus moves a document from one status to another in a
	// single conditional UPDATE. It reports false when the row was not in
	// the expected status, so concurrent callers cannot double-transition.
	TransitionStatus(ctx context.Context, tenantID, id string, from, to model.DocumentStatus) (bool, error)

	// RetryFailed moves a failed document back to indexing and bumps its
	// retry counter, but only while the counter is below maxRetries.
	RetryFailed(ctx context.Context, tenantID, id string, maxRetries int) (bool, error)

	// MarkSynced moves an indexing document to synced and stamps synced_at.
	MarkSynced(ctx context.Context, tenantID, id string) (bool, error)

	// ListByStatus returns up to limit documents in the given status across
	// all tenants. Used by background sweeps, never exposed to tenants.
	ListByStatus(ctx context.Context, status model.DocumentStatus, limit int) ([]model.Document, error)

	// Delete removes a document row by ID within a tenant.
	Delete(ctx context.Context, tenantID, id string) error
}
