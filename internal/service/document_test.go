package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/config"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	repomocks "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository/mocks"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search"
	searchmocks "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search/mocks"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage"
	storagemocks "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage/mocks"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/tenant"
)

var testTC = model.TenantContext{TenantID: "tenant-a", IndexDomain: "domain-a"}

func newLifecycleFixture() (*LifecycleManager, *storagemocks.MockStorage, *repomocks.MockDocumentRepository, *searchmocks.MockEngine) {
	store := new(storagemocks.MockStorage)
	repo := new(repomocks.MockDocumentRepository)
	engine := new(searchmocks.MockEngine)
	resolver := tenant.NewResolver(
		map[string]string{"tenant-a": "domain-a", "tenant-b": "domain-b"},
		map[string]string{"domain-a": "a", "domain-b": "b"},
	)
	cfg := config.SyncConfig{
		Workers:         1,
		JobTimeout:      time.Second,
		MaxSyncRetries:  3,
		ReconcileEvery:  time.Minute,
		PresignedExpiry: 5 * time.Minute,
	}
	mgr := NewLifecycleManager(store, repo, engine, resolver, cfg, "rag-documents", zap.NewNop())
	return mgr, store, repo, engine
}

func TestTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("creates uploaded record with assigned domain", func(t *testing.T) {
		mgr, store, repo, _ := newLifecycleFixture()

		repo.On("FindByKey", ctx, "tenant-a", "tenant-a/obj-1").Return(nil, sql.ErrNoRows).Once()
		store.On("Stat", ctx, "tenant-a/obj-1").Return(storage.ObjectInfo{
			Size:        512,
			ContentType: "application/pdf",
			Metadata:    map[string]string{"Original-Filename": "report.pdf"},
		}, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
			return d.TenantID == "tenant-a" &&
				d.IndexDomain == "domain-a" &&
				d.Status == model.StatusUploaded &&
				d.Title == "report.pdf" &&
				d.Key == "tenant-a/obj-1"
		})).Return(&model.Document{ID: "d1", Status: model.StatusUploaded}, nil)

		doc, err := mgr.Track(ctx, "tenant-a/obj-1", 512)

		require.NoError(t, err)
		assert.Equal(t, model.StatusUploaded, doc.Status)
		repo.AssertExpectations(t)
	})

	t.Run("is idempotent for an already tracked key", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		existing := &model.Document{ID: "d1", Status: model.StatusSynced}
		repo.On("FindByKey", ctx, "tenant-a", "tenant-a/obj-1").Return(existing, nil).Once()

		doc, err := mgr.Track(ctx, "tenant-a/obj-1", 512)

		require.NoError(t, err)
		assert.Equal(t, existing, doc)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("hard-fails for an unassigned tenant", func(t *testing.T) {
		mgr, _, _, _ := newLifecycleFixture()

		_, err := mgr.Track(ctx, "tenant-unknown/obj-1", 512)

		assert.ErrorIs(t, err, tenant.ErrUnresolvedTenant)
	})

	t.Run("rejects keys without a tenant prefix", func(t *testing.T) {
		mgr, _, _, _ := newLifecycleFixture()

		_, err := mgr.Track(ctx, "orphan-object", 512)

		assert.Error(t, err)
	})
}

func TestRequestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("uploaded transitions to indexing and enqueues", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", TenantID: "tenant-a", Status: model.StatusUploaded}, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusUploaded, model.StatusIndexing).
			Return(true, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		require.NoError(t, err)
		select {
		case job := <-mgr.jobs:
			assert.Equal(t, "d1", job.docID)
		default:
			t.Fatal("expected a queued sync job")
		}
	})

	t.Run("synced document can be re-indexed", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", TenantID: "tenant-a", Status: model.StatusSynced}, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusSynced, model.StatusIndexing).
			Return(true, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("second request is rejected while indexing", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", Status: model.StatusIndexing}, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		assert.ErrorIs(t, err, ErrAlreadyIndexing)
	})

	t.Run("losing the conditional update is rejected", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", Status: model.StatusUploaded}, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusUploaded, model.StatusIndexing).
			Return(false, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		assert.ErrorIs(t, err, ErrAlreadyIndexing)
	})

	t.Run("failed document retries below the limit", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", Status: model.StatusFailed, RetryCount: 1}, nil)
		repo.On("RetryFailed", ctx, "tenant-a", "d1", 3).Return(true, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		require.NoError(t, err)
	})

	t.Run("failed document at the limit is rejected", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", Status: model.StatusFailed, RetryCount: 3}, nil)
		repo.On("RetryFailed", ctx, "tenant-a", "d1", 3).Return(false, nil)

		err := mgr.RequestSync(ctx, testTC, "d1")

		assert.ErrorIs(t, err, ErrRetryLimit)
	})

	t.Run("unknown document", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "missing").Return(nil, sql.ErrNoRows)

		err := mgr.RequestSync(ctx, testTC, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProcessSync(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{
		ID: "d1", TenantID: "tenant-a", IndexDomain: "domain-a",
		Key: "tenant-a/obj-1", Title: "report.pdf", Status: model.StatusIndexing,
	}

	t.Run("indexes content and marks synced", func(t *testing.T) {
		mgr, store, repo, engine := newLifecycleFixture()

		repo.On("FindByID", mock.Anything, "tenant-a", "d1").Return(doc, nil)
		store.On("Get", mock.Anything, "tenant-a/obj-1").
			Return(io.NopCloser(strings.NewReader("document body")), storage.ObjectInfo{}, nil)
		engine.On("Index", mock.Anything, "domain-a", mock.MatchedBy(func(d search.Document) bool {
			return d.DocID == "d1" && d.TenantID == "tenant-a" && d.Content == "document body"
		})).Return(nil)
		repo.On("MarkSynced", mock.Anything, "tenant-a", "d1").Return(true, nil)

		mgr.processSync(ctx, syncJob{tenantID: "tenant-a", docID: "d1"})

		engine.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("indexing failure transitions to failed", func(t *testing.T) {
		mgr, store, repo, engine := newLifecycleFixture()

		repo.On("FindByID", mock.Anything, "tenant-a", "d1").Return(doc, nil)
		store.On("Get", mock.Anything, "tenant-a/obj-1").
			Return(io.NopCloser(strings.NewReader("document body")), storage.ObjectInfo{}, nil)
		engine.On("Index", mock.Anything, "domain-a", mock.Anything).Return(assert.AnError)
		repo.On("TransitionStatus", mock.Anything, "tenant-a", "d1", model.StatusIndexing, model.StatusFailed).
			Return(true, nil)

		mgr.processSync(ctx, syncJob{tenantID: "tenant-a", docID: "d1"})

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkSynced", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("timeout is recorded on a live context", func(t *testing.T) {
		mgr, store, repo, _ := newLifecycleFixture()
		mgr.cfg.JobTimeout = time.Nanosecond

		repo.On("FindByID", mock.Anything, "tenant-a", "d1").Return(doc, nil)
		store.On("Get", mock.Anything, "tenant-a/obj-1").
			Return(nil, storage.ObjectInfo{}, context.DeadlineExceeded)
		// The job deadline is already gone; the failed mark must arrive on
		// a context that can still reach the database.
		repo.On("TransitionStatus", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), "tenant-a", "d1", model.StatusIndexing, model.StatusFailed).Return(true, nil)

		mgr.processSync(ctx, syncJob{tenantID: "tenant-a", docID: "d1"})

		repo.AssertExpectations(t)
	})

	t.Run("skips documents no longer indexing", func(t *testing.T) {
		mgr, store, repo, _ := newLifecycleFixture()

		repo.On("FindByID", mock.Anything, "tenant-a", "d1").
			Return(&model.Document{ID: "d1", Status: model.StatusSynced}, nil)

		mgr.processSync(ctx, syncJob{tenantID: "tenant-a", docID: "d1"})

		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{
		ID: "d1", TenantID: "tenant-a", IndexDomain: "domain-a",
		Key: "tenant-a/obj-1", Status: model.StatusSynced,
	}

	t.Run("removes index content, object and record", func(t *testing.T) {
		mgr, store, repo, engine := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").Return(doc, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusSynced, model.StatusDeleting).
			Return(true, nil)
		engine.On("Delete", ctx, "domain-a", "d1").Return(nil)
		store.On("Delete", ctx, "tenant-a/obj-1").Return(nil)
		repo.On("Delete", ctx, "tenant-a", "d1").Return(nil)

		err := mgr.Delete(ctx, testTC, "d1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("partial failure keeps the record in deleting", func(t *testing.T) {
		mgr, store, repo, engine := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").Return(doc, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusSynced, model.StatusDeleting).
			Return(true, nil)
		engine.On("Delete", ctx, "domain-a", "d1").Return(nil)
		store.On("Delete", ctx, "tenant-a/obj-1").Return(assert.AnError)

		err := mgr.Delete(ctx, testTC, "d1")

		assert.ErrorIs(t, err, ErrPartialDelete)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing the deleting transition is a conflict", func(t *testing.T) {
		mgr, store, repo, engine := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "d1").Return(doc, nil)
		repo.On("TransitionStatus", ctx, "tenant-a", "d1", model.StatusSynced, model.StatusDeleting).
			Return(false, nil)

		err := mgr.Delete(ctx, testTC, "d1")

		assert.ErrorIs(t, err, ErrConflict)
		engine.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unknown document", func(t *testing.T) {
		mgr, _, repo, _ := newLifecycleFixture()

		repo.On("FindByID", ctx, "tenant-a", "missing").Return(nil, sql.ErrNoRows)

		err := mgr.Delete(ctx, testTC, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReconcileDeletes(t *testing.T) {
	ctx := context.Background()
	mgr, store, repo, engine := newLifecycleFixture()

	stuck := model.Document{
		ID: "d1", TenantID: "tenant-a", IndexDomain: "domain-a",
		Key: "tenant-a/obj-1", Status: model.StatusDeleting,
	}
	repo.On("ListByStatus", ctx, model.StatusDeleting, 100).Return([]model.Document{stuck}, nil)
	engine.On("Delete", ctx, "domain-a", "d1").Return(nil)
	store.On("Delete", ctx, "tenant-a/obj-1").Return(nil)
	repo.On("Delete", ctx, "tenant-a", "d1").Return(nil)

	mgr.ReconcileDeletes(ctx)

	repo.AssertExpectations(t)
	engine.AssertExpectations(t)
}

func TestUploadURL(t *testing.T) {
	ctx := context.Background()
	mgr, store, _, _ := newLifecycleFixture()

	store.On("PresignPut", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tenant-a/")
	}), 5*time.Minute).Return("https://minio/presigned", nil)

	ticket, err := mgr.UploadURL(ctx, testTC)

	require.NoError(t, err)
	assert.Equal(t, "https://minio/presigned", ticket.URL)
	assert.True(t, strings.HasPrefix(ticket.Key, "tenant-a/"))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), ticket.ExpiresAt, 5*time.Second)
}

func TestFileType(t *testing.T) {
	cases := []struct {
		contentType string
		title       string
		want        string
	}{
		{"application/pdf", "a.pdf", "PDF"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "a.docx", "Word"},
		{"text/plain", "notes.txt", "Text"},
		{"application/vnd.ms-excel", "sheet.xls", "Spreadsheet"},
		{"application/octet-stream", "data.csv", "Spreadsheet"},
		{"application/octet-stream", "blob.bin", "Unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fileType(tc.contentType, tc.title), tc.title)
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}
