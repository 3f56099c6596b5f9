package model

import "time"

// DocumentStatus is the lifecycle state of an uploaded document.
type DocumentStatus string

const (
	// StatusUploaded is the initial state, set when the object-store write
	// notification is tracked.
	StatusUploaded DocumentStatus = "uploaded"
	// StatusIndexing marks a document with an active sync job. The status
	// doubles as the per-document job lock.
	StatusIndexing DocumentStatus = "indexing"
	// StatusSynced is terminal: the content is queryable in the tenant's
	// index domain.
	StatusSynced DocumentStatus = "synced"
	// StatusFailed is terminal but allows a bounded number of manual
	// resyncs back to StatusIndexing.
	StatusFailed DocumentStatus = "failed"
	// StatusDeleting marks a two-phase delete whose second phase has not
	// converged yet. The reconciler retries these rows until both the
	// indexed content and the metadata row are gone.
	StatusDeleting DocumentStatus = "deleting"
)

// Document represents a tenant-owned file tracked through the indexing
// lifecycle. This is a pure domain model with no database-specific
// dependencies or tags; it is shared across layers without coupling to
// persistence.
type Document struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	IndexDomain string         `json:"index_domain"`
	Bucket      string         `json:"bucket"`
	Key         string         `json:"key"`
	Title       string         `json:"title"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	Status      DocumentStatus `json:"status"`
	RetryCount  int            `json:"retry_count"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	SyncedAt    *time.Time     `json:"synced_at,omitempty"`
}

// DocumentView decorates a document with display fields derived from its
// content type and size.
type DocumentView struct {
	Document
	FileType  string `json:"file_type"`
	SizeHuman string `json:"size_human"`
}

// DocumentListResult is the paginated document listing payload.
type DocumentListResult struct {
	Items []DocumentView `json:"data"`
	Total int            `json:"total"`
}

// UploadTicket is a presigned upload slot handed to a tenant.
type UploadTicket struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}
