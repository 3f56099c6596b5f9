package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendMessage(ctx context.Context, tc model.TenantContext, sessionID, message string) (*model.ChatMessage, error) {
	args := m.Called(ctx, tc, sessionID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, tc model.TenantContext, sessionID string, limit int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, tc, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}
