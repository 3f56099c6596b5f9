package postgres

import (
	"context"
	"database/sql"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, tenant_id, index_domain, bucket, key, title, content_type, size, status, retry_count, uploaded_at, synced_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.TenantID,
		&d.IndexDomain,
		&d.Bucket,
		&d.Key,
		&d.Title,
		&d.ContentType,
		&d.Size,
		&d.Status,
		&d.RetryCount,
		&d.UploadedAt,
		&d.SyncedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, tenant_id, index_domain, bucket, key, title, content_type, size, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.TenantID,
		doc.IndexDomain,
		doc.Bucket,
		doc.Key,
		doc.Title,
		doc.ContentType,
		doc.Size,
		doc.Status,
		doc.UploadedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID within a tenant.
func (r *DocumentPostgres) FindByID(ctx context.Context, tenantID, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND id = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, tenantID, id))
}

// FindByKey fetches a single document by its object key within a tenant.
func (r *DocumentPostgres) FindByKey(ctx context.Context, tenantID, key string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND key = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, tenantID, key))
}

// List returns a tenant's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, tenantID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE tenant_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, tenantID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, tenantID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// TransitionStatus performs a conditional status update. The WHERE clause on
// the current status is what makes concurrent transitions safe: only one
// caller observes rows affected = 1.
func (r *DocumentPostgres) TransitionStatus(ctx context.Context, tenantID, id string, from, to model.DocumentStatus) (bool, error) {
	const q = `
		UPDATE documents
		SET status = $1
		WHERE tenant_id = $2 AND id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, q, to, tenantID, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RetryFailed moves a failed document back to indexing while the retry
// counter is below maxRetries, bumping the counter in the same statement.
func (r *DocumentPostgres) RetryFailed(ctx context.Context, tenantID, id string, maxRetries int) (bool, error) {
	const q = `
		UPDATE documents
		SET status = $1, retry_count = retry_count + 1
		WHERE tenant_id = $2 AND id = $3 AND status = $4 AND retry_count < $5
	`
	res, err := r.db.ExecContext(ctx, q, model.StatusIndexing, tenantID, id, model.StatusFailed, maxRetries)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkSynced moves an indexing document to synced and stamps synced_at.
func (r *DocumentPostgres) MarkSynced(ctx context.Context, tenantID, id string) (bool, error) {
	const q = `
		UPDATE documents
		SET status = $1, synced_at = now()
		WHERE tenant_id = $2 AND id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, q, model.StatusSynced, tenantID, id, model.StatusIndexing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByStatus returns up to limit documents in the given status across all tenants.
func (r *DocumentPostgres) ListByStatus(ctx context.Context, status model.DocumentStatus, limit int) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1
		ORDER BY uploaded_at
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// Delete removes a document row by ID within a tenant.
func (r *DocumentPostgres) Delete(ctx context.Context, tenantID, id string) error {
	const q = `DELETE FROM documents WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, q, tenantID, id)
	return err
}
