package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) AddUsage(ctx context.Context, rec model.UsageRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockUsageRepository) MonthRecords(ctx context.Context, tenantID, month string) ([]model.UsageRecord, error) {
	args := m.Called(ctx, tenantID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UsageRecord), args.Error(1)
}
