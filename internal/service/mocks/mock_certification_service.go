package mocks

import (
	"context"
	"io"

	"sigillum/internal/model"
	"sigillum/internal/qrstamp"
	"sigillum/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockCertificationService struct {
	mock.Mock
}

func (m *MockCertificationService) Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegisterResult), args.Error(1)
}

func (m *MockCertificationService) PresignedUploads() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCertificationService) InitUpload(ctx context.Context) (*service.UploadTicket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadTicket), args.Error(1)
}

func (m *MockCertificationService) Process(ctx context.Context, docCode string, qr qrstamp.Options) (*service.RegisterResult, error) {
	args := m.Called(ctx, docCode, qr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegisterResult), args.Error(1)
}

func (m *MockCertificationService) Resolve(ctx context.Context, docCode string) (*service.ResolveResult, error) {
	args := m.Called(ctx, docCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolveResult), args.Error(1)
}

func (m *MockCertificationService) Verify(ctx context.Context, docCode string, candidate io.Reader) (*service.VerifyResult, error) {
	args := m.Called(ctx, docCode, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyResult), args.Error(1)
}

func (m *MockCertificationService) List(ctx context.Context) ([]model.DocumentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockCertificationService) Revoke(ctx context.Context, docCode string) error {
	args := m.Called(ctx, docCode)
	return args.Error(0)
}
