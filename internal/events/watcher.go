// Package events consumes object-store notifications and feeds them into
// the document lifecycle.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/service"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage"
)

// Watcher turns object-created events into tracked documents. Delivery is
// at least once; Track absorbs replays.
type Watcher struct {
	store storage.Storage
	docs  service.DocumentService
	log   *zap.Logger
}

// NewWatcher constructs a Watcher.
func NewWatcher(store storage.Storage, docs service.DocumentService, log *zap.Logger) *Watcher {
	return &Watcher{store: store, docs: docs, log: log}
}

// Run consumes events until ctx is canceled. A failed track is logged and
// skipped; the next delivery of the same event retries it.
func (w *Watcher) Run(ctx context.Context) {
	events := w.store.ListenCreated(ctx, "")
	for ev := range events {
		doc, err := w.docs.Track(ctx, ev.Key, ev.Size)
		if err != nil {
			w.log.Warn("object event not tracked",
				zap.String("key", ev.Key),
				zap.Error(err))
			continue
		}
		w.log.Info("object event tracked",
			zap.String("key", ev.Key),
			zap.String("document_id", doc.ID))
	}
}
