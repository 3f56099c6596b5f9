package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/generation"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, modelID, prompt string) (*generation.Result, error) {
	args := m.Called(ctx, modelID, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Result), args.Error(1)
}
