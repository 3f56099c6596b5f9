package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/config"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/tenant"
)

// maxIndexBytes caps how much of an object is read for indexing.
const maxIndexBytes = 10 << 20

// DocumentService defines the tenant-facing document lifecycle use cases.
type DocumentService interface {
	// Track records a newly stored object as an uploaded document. Calling
	// it again for the same key returns the existing record unchanged.
	Track(ctx context.Context, key string, size int64) (*model.Document, error)

	// List returns a tenant's documents with display fields, newest first.
	List(ctx context.Context, tc model.TenantContext, limit, offset int) (*model.DocumentListResult, error)

	// RequestSync moves a document into indexing and schedules the job.
	RequestSync(ctx context.Context, tc model.TenantContext, id string) error

	// Delete removes indexed content, the stored object and the metadata
	// record as one logical unit. A partial failure leaves the record in
	// deleting and returns ErrPartialDelete; the reconciler converges it.
	Delete(ctx context.Context, tc model.TenantContext, id string) error

	// UploadURL issues a presigned PUT slot under the tenant's key prefix.
	UploadURL(ctx context.Context, tc model.TenantContext) (*model.UploadTicket, error)
}

type syncJob struct {
	tenantID string
	docID    string
}

// LifecycleManager implements DocumentService and owns the async machinery
// behind it: the sync worker pool and the delete reconciler.
type LifecycleManager struct {
	store    storage.Storage
	repo     repository.DocumentRepository
	engine   search.Engine
	resolver *tenant.Resolver
	cfg      config.SyncConfig
	bucket   string
	log      *zap.Logger

	jobs chan syncJob
	wg   sync.WaitGroup
}

// NewLifecycleManager constructs the manager. Start must be called before
// RequestSync will make progress.
func NewLifecycleManager(
	store storage.Storage,
	repo repository.DocumentRepository,
	engine search.Engine,
	resolver *tenant.Resolver,
	cfg config.SyncConfig,
	bucket string,
	log *zap.Logger,
) *LifecycleManager {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &LifecycleManager{
		store:    store,
		repo:     repo,
		engine:   engine,
		resolver: resolver,
		cfg:      cfg,
		bucket:   bucket,
		log:      log,
		jobs:     make(chan syncJob, workers*16),
	}
}

var _ DocumentService = (*LifecycleManager)(nil)

// Start launches the sync workers and the delete reconciler. They run until
// ctx is canceled; Wait blocks until they drain.
func (s *LifecycleManager) Start(ctx context.Context) {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-s.jobs:
					s.processSync(ctx, job)
				}
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.ReconcileEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.ReconcileDeletes(ctx)
			}
		}
	}()
}

// Wait blocks until all background goroutines have exited.
func (s *LifecycleManager) Wait() {
	s.wg.Wait()
}

// Track records an object-created event. Events are delivered at least
// once; the (tenant, key) uniqueness makes replays a no-op.
func (s *LifecycleManager) Track(ctx context.Context, key string, size int64) (*model.Document, error) {
	tenantID, ok := tenantFromKey(key)
	if !ok {
		return nil, fmt.Errorf("object key %q has no tenant prefix", key)
	}
	domain, err := s.resolver.DomainFor(tenantID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByKey(ctx, tenantID, key); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	title := path.Base(key)
	contentType := "application/octet-stream"
	if info, err := s.store.Stat(ctx, key); err == nil {
		if name := info.Metadata["Original-Filename"]; name != "" {
			title = name
		} else if name := info.Metadata["original-filename"]; name != "" {
			title = name
		}
		if info.ContentType != "" {
			contentType = info.ContentType
		}
		if size <= 0 {
			size = info.Size
		}
	}

	doc := &model.Document{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		IndexDomain: domain,
		Bucket:      s.bucket,
		Key:         key,
		Title:       title,
		ContentType: contentType,
		Size:        size,
		Status:      model.StatusUploaded,
		UploadedAt:  time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		// A concurrent tracker may have won the unique (tenant_id, key) race.
		if existing, findErr := s.repo.FindByKey(ctx, tenantID, key); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("track document: %w", err)
	}

	s.log.Info("document tracked",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", created.ID),
		zap.String("key", key))
	return created, nil
}

// List returns a tenant's documents with derived display fields.
func (s *LifecycleManager) List(ctx context.Context, tc model.TenantContext, limit, offset int) (*model.DocumentListResult, error) {
	res, err := s.repo.List(ctx, tc.TenantID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]model.DocumentView, 0, len(res.Items))
	for _, doc := range res.Items {
		items = append(items, model.DocumentView{
			Document:  doc,
			FileType:  fileType(doc.ContentType, doc.Title),
			SizeHuman: formatFileSize(doc.Size),
		})
	}
	return &model.DocumentListResult{Items: items, Total: res.Total}, nil
}

// RequestSync transitions the document into indexing and enqueues the job.
// The status column is the per-document lock: whichever caller wins the
// conditional update owns the sync.
func (s *LifecycleManager) RequestSync(ctx context.Context, tc model.TenantContext, id string) error {
	doc, err := s.repo.FindByID(ctx, tc.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	switch doc.Status {
	case model.StatusIndexing:
		return ErrAlreadyIndexing
	case model.StatusDeleting:
		return ErrNotFound
	case model.StatusFailed:
		ok, err := s.repo.RetryFailed(ctx, tc.TenantID, id, s.cfg.MaxSyncRetries)
		if err != nil {
			return err
		}
		if !ok {
			if doc.RetryCount >= s.cfg.MaxSyncRetries {
				return ErrRetryLimit
			}
			return ErrAlreadyIndexing
		}
	default:
		// uploaded, or synced being re-indexed after the underlying
		// object was replaced.
		ok, err := s.repo.TransitionStatus(ctx, tc.TenantID, id, doc.Status, model.StatusIndexing)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyIndexing
		}
	}

	select {
	case s.jobs <- syncJob{tenantID: tc.TenantID, docID: id}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processSync runs one indexing job to a terminal state. Every outcome is a
// conditional transition, so an already-finished or canceled job changes
// nothing.
func (s *LifecycleManager) processSync(ctx context.Context, job syncJob) {
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	log := s.log.With(
		zap.String("tenant_id", job.tenantID),
		zap.String("document_id", job.docID))

	doc, err := s.repo.FindByID(jobCtx, job.tenantID, job.docID)
	if err != nil {
		log.Error("sync job: load document failed", zap.Error(err))
		return
	}
	if doc.Status != model.StatusIndexing {
		return
	}

	if err := s.indexDocument(jobCtx, doc); err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		log.Error("sync job failed", zap.String("reason", reason), zap.Error(err))

		// The job context may already be past its deadline; the failure
		// must still be recorded or the document holds the indexing lock
		// forever.
		markCtx, markCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer markCancel()
		if _, terr := s.repo.TransitionStatus(markCtx, doc.TenantID, doc.ID, model.StatusIndexing, model.StatusFailed); terr != nil {
			log.Error("sync job: mark failed errored", zap.Error(terr))
		}
		return
	}

	ok, err := s.repo.MarkSynced(jobCtx, doc.TenantID, doc.ID)
	if err != nil {
		log.Error("sync job: mark synced errored", zap.Error(err))
		return
	}
	if ok {
		log.Info("document synced")
	}
}

func (s *LifecycleManager) indexDocument(ctx context.Context, doc *model.Document) error {
	rc, _, err := s.store.Get(ctx, doc.Key)
	if err != nil {
		return fmt.Errorf("fetch object: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxIndexBytes))
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}

	err = s.engine.Index(ctx, doc.IndexDomain, search.Document{
		DocID:    doc.ID,
		TenantID: doc.TenantID,
		Title:    doc.Title,
		Content:  string(content),
	})
	if err != nil {
		return fmt.Errorf("index content: %w", err)
	}
	return nil
}

// Delete runs the two-phase removal: mark deleting, then clear the index,
// the object and finally the row.
func (s *LifecycleManager) Delete(ctx context.Context, tc model.TenantContext, id string) error {
	doc, err := s.repo.FindByID(ctx, tc.TenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if doc.Status != model.StatusDeleting {
		ok, err := s.repo.TransitionStatus(ctx, tc.TenantID, id, doc.Status, model.StatusDeleting)
		if err != nil {
			return err
		}
		if !ok {
			// The status moved underneath us, e.g. a sync job claimed the
			// document. Nothing has been deleted yet.
			return ErrConflict
		}
	}

	return s.finishDelete(ctx, doc)
}

// finishDelete clears index content, the object and the row, in that order.
// Each step is individually idempotent, so retries converge.
func (s *LifecycleManager) finishDelete(ctx context.Context, doc *model.Document) error {
	if err := s.engine.Delete(ctx, doc.IndexDomain, doc.ID); err != nil {
		return fmt.Errorf("%w: index removal: %s", ErrPartialDelete, err)
	}
	if err := s.store.Delete(ctx, doc.Key); err != nil {
		return fmt.Errorf("%w: object removal: %s", ErrPartialDelete, err)
	}
	if err := s.repo.Delete(ctx, doc.TenantID, doc.ID); err != nil {
		return fmt.Errorf("%w: record removal: %s", ErrPartialDelete, err)
	}
	return nil
}

// ReconcileDeletes retries every document stuck in deleting.
func (s *LifecycleManager) ReconcileDeletes(ctx context.Context) {
	docs, err := s.repo.ListByStatus(ctx, model.StatusDeleting, 100)
	if err != nil {
		s.log.Error("delete reconciler: list failed", zap.Error(err))
		return
	}
	for i := range docs {
		doc := &docs[i]
		if err := s.finishDelete(ctx, doc); err != nil {
			s.log.Warn("delete reconciler: retry pending",
				zap.String("tenant_id", doc.TenantID),
				zap.String("document_id", doc.ID),
				zap.Error(err))
			continue
		}
		s.log.Info("delete reconciled",
			zap.String("tenant_id", doc.TenantID),
			zap.String("document_id", doc.ID))
	}
}

// UploadURL issues a presigned PUT slot under the tenant's key prefix.
func (s *LifecycleManager) UploadURL(ctx context.Context, tc model.TenantContext) (*model.UploadTicket, error) {
	key := tc.TenantID + "/" + uuid.NewString()
	url, err := s.store.PresignPut(ctx, key, s.cfg.PresignedExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &model.UploadTicket{
		URL:       url,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(s.cfg.PresignedExpiry),
	}, nil
}

// tenantFromKey extracts the tenant prefix from a "tenantID/uniqueID" key.
func tenantFromKey(key string) (string, bool) {
	tenantID, rest, ok := strings.Cut(key, "/")
	if !ok || tenantID == "" || rest == "" {
		return "", false
	}
	return tenantID, true
}

// fileType derives a display category from content type, falling back to
// the filename extension.
func fileType(contentType, title string) string {
	ct := strings.ToLower(contentType)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(title), "."))

	switch {
	case strings.Contains(ct, "pdf") || ext == "pdf":
		return "PDF"
	case strings.Contains(ct, "word") || ext == "doc" || ext == "docx":
		return "Word"
	case strings.Contains(ct, "spreadsheet") || strings.Contains(ct, "excel") || ext == "xls" || ext == "xlsx" || ext == "csv":
		return "Spreadsheet"
	case strings.HasPrefix(ct, "text/") || ext == "txt" || ext == "md":
		return "Text"
	default:
		return "Unknown"
	}
}

// formatFileSize renders a byte count for humans.
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
