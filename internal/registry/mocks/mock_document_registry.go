package mocks

import (
	"context"

	"sigillum/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentRegistry struct {
	mock.Mock
}

func (m *MockDocumentRegistry) Create(ctx context.Context, doc model.NewDocument) (*model.DocumentRecord, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRegistry) GetByCode(ctx context.Context, docCode string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, docCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRegistry) List(ctx context.Context) ([]model.DocumentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRegistry) Revoke(ctx context.Context, docCode string) (bool, error) {
	args := m.Called(ctx, docCode)
	return args.Bool(0), args.Error(1)
}
