package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Index(ctx context.Context, domain string, doc search.Document) error {
	args := m.Called(ctx, domain, doc)
	return args.Error(0)
}

func (m *MockEngine) Delete(ctx context.Context, domain, docID string) error {
	args := m.Called(ctx, domain, docID)
	return args.Error(0)
}

func (m *MockEngine) Query(ctx context.Context, domain, tenantID, query string, limit int) ([]search.Hit, error) {
	args := m.Called(ctx, domain, tenantID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Hit), args.Error(1)
}

func (m *MockEngine) Close() error {
	args := m.Called()
	return args.Error(0)
}
