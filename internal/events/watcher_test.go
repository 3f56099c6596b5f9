package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	svcmocks "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/service/mocks"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage"
	storagemocks "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage/mocks"
)

func TestWatcherRun(t *testing.T) {
	t.Run("tracks every event until the channel closes", func(t *testing.T) {
		events := make(chan storage.ObjectCreatedEvent, 2)
		events <- storage.ObjectCreatedEvent{Key: "tenant-a/doc-1", Size: 10}
		events <- storage.ObjectCreatedEvent{Key: "tenant-b/doc-2", Size: 20}
		close(events)

		store := new(storagemocks.MockStorage)
		store.On("ListenCreated", mock.Anything, "").
			Return((<-chan storage.ObjectCreatedEvent)(events))

		docs := new(svcmocks.MockDocumentService)
		docs.On("Track", mock.Anything, "tenant-a/doc-1", int64(10)).
			Return(&model.Document{ID: "id-1"}, nil)
		docs.On("Track", mock.Anything, "tenant-b/doc-2", int64(20)).
			Return(&model.Document{ID: "id-2"}, nil)

		w := NewWatcher(store, docs, zap.NewNop())
		w.Run(context.Background())

		docs.AssertExpectations(t)
	})

	t.Run("a failed track does not stop the loop", func(t *testing.T) {
		events := make(chan storage.ObjectCreatedEvent, 2)
		events <- storage.ObjectCreatedEvent{Key: "stray-object", Size: 1}
		events <- storage.ObjectCreatedEvent{Key: "tenant-a/doc-3", Size: 5}
		close(events)

		store := new(storagemocks.MockStorage)
		store.On("ListenCreated", mock.Anything, "").
			Return((<-chan storage.ObjectCreatedEvent)(events))

		docs := new(svcmocks.MockDocumentService)
		docs.On("Track", mock.Anything, "stray-object", int64(1)).
			Return(nil, errors.New("no tenant prefix"))
		docs.On("Track", mock.Anything, "tenant-a/doc-3", int64(5)).
			Return(&model.Document{ID: "id-3"}, nil)

		w := NewWatcher(store, docs, zap.NewNop())
		w.Run(context.Background())

		docs.AssertExpectations(t)
		assert.True(t, docs.AssertNumberOfCalls(t, "Track", 2))
	})
}
