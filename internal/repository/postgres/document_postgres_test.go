package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

var docColumns = []string{"id", "tenant_id", "index_domain", "bucket", "key", "title", "content_type", "size", "status", "retry_count", "uploaded_at", "synced_at"}

func docRow(d *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(docColumns).
		AddRow(d.ID, d.TenantID, d.IndexDomain, d.Bucket, d.Key, d.Title, d.ContentType, d.Size, d.Status, d.RetryCount, d.UploadedAt, d.SyncedAt)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{
		ID:          "test-uuid",
		TenantID:    "tenant-1",
		IndexDomain: "domain-a",
		Bucket:      "rag-documents",
		Key:         "tenant-1/abc123",
		Title:       "report.pdf",
		ContentType: "application/pdf",
		Size:        123,
		Status:      model.StatusUploaded,
		UploadedAt:  time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.TenantID, doc.IndexDomain, doc.Bucket, doc.Key, doc.Title, doc.ContentType, doc.Size, doc.Status, doc.UploadedAt).
		WillReturnRows(docRow(doc))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, model.StatusUploaded, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := &model.Document{ID: "test-id", TenantID: "tenant-1", Status: model.StatusSynced, UploadedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("tenant-1", "test-id").
			WillReturnRows(docRow(doc))

		got, err := repo.FindByID(ctx, "tenant-1", "test-id")

		assert.NoError(t, err)
		assert.Equal(t, "test-id", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("tenant-1", "missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "tenant-1", "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents`).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	doc1 := &model.Document{ID: "d1", TenantID: "tenant-1", Status: model.StatusSynced, UploadedAt: time.Now()}
	doc2 := &model.Document{ID: "d2", TenantID: "tenant-1", Status: model.StatusUploaded, UploadedAt: time.Now()}
	rows := docRow(doc1)
	rows.AddRow(doc2.ID, doc2.TenantID, doc2.IndexDomain, doc2.Bucket, doc2.Key, doc2.Title, doc2.ContentType, doc2.Size, doc2.Status, doc2.RetryCount, doc2.UploadedAt, doc2.SyncedAt)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("tenant-1", 10, 0).
		WillReturnRows(rows)

	res, err := repo.List(ctx, "tenant-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_TransitionStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("transitions when status matches", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusIndexing, "tenant-1", "d1", model.StatusUploaded).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.TransitionStatus(ctx, "tenant-1", "d1", model.StatusUploaded, model.StatusIndexing)

		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reports false when status does not match", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusIndexing, "tenant-1", "d1", model.StatusUploaded).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.TransitionStatus(ctx, "tenant-1", "d1", model.StatusUploaded, model.StatusIndexing)

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDocumentPostgres_RetryFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("retries below the limit", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusIndexing, "tenant-1", "d1", model.StatusFailed, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.RetryFailed(ctx, "tenant-1", "d1", 3)

		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("refuses at the limit", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusIndexing, "tenant-1", "d1", model.StatusFailed, 3).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.RetryFailed(ctx, "tenant-1", "d1", 3)

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDocumentPostgres_MarkSynced(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE documents").
		WithArgs(model.StatusSynced, "tenant-1", "d1", model.StatusIndexing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkSynced(ctx, "tenant-1", "d1")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("tenant-1", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "tenant-1", "d1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
