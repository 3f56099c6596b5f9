package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Track(ctx context.Context, key string, size int64) (*model.Document, error) {
	args := m.Called(ctx, key, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, tc model.TenantContext, limit, offset int) (*model.DocumentListResult, error) {
	args := m.Called(ctx, tc, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) RequestSync(ctx context.Context, tc model.TenantContext, id string) error {
	args := m.Called(ctx, tc, id)
	return args.Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, tc model.TenantContext, id string) error {
	args := m.Called(ctx, tc, id)
	return args.Error(0)
}

func (m *MockDocumentService) UploadURL(ctx context.Context, tc model.TenantContext) (*model.UploadTicket, error) {
	args := m.Called(ctx, tc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadTicket), args.Error(1)
}
