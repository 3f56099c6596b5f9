package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Append(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	args := m.Called(ctx, msg)
	if f, ok := args.Get(0).(func(context.Context, *model.ChatMessage) *model.ChatMessage); ok {
		return f(ctx, msg), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) ReplacePlaceholder(ctx context.Context, sessionID, messageID, content string, sources []model.Source) (bool, error) {
	args := m.Called(ctx, sessionID, messageID, content, sources)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}
