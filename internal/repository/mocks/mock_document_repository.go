package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByKey(ctx context.Context, tenantID, key string) (*model.Document, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, tenantID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, tenantID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) TransitionStatus(ctx context.Context, tenantID, id string, from, to model.DocumentStatus) (bool, error) {
	args := m.Called(ctx, tenantID, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) RetryFailed(ctx context.Context, tenantID, id string, maxRetries int) (bool, error) {
	args := m.Called(ctx, tenantID, id, maxRetries)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) MarkSynced(ctx context.Context, tenantID, id string) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) ListByStatus(ctx context.Context, status model.DocumentStatus, limit int) ([]model.Document, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}
