package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) Record(ctx context.Context, tenantID, modelID, invocationID string, inputTokens, outputTokens int64) error {
	args := m.Called(ctx, tenantID, modelID, invocationID, inputTokens, outputTokens)
	return args.Error(0)
}

func (m *MockUsageService) Dashboard(ctx context.Context, tenantID string) (*model.Dashboard, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Retrieve(ctx context.Context, tc model.TenantContext, query string, topK int) ([]model.Source, error) {
	args := m.Called(ctx, tc, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Source), args.Error(1)
}

type MockDeduper struct {
	mock.Mock
}

func (m *MockDeduper) Seen(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
