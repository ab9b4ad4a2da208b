package mocks

import (
	"context"
	"io"

	"chatgw/internal/backend"
	"chatgw/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentBackend struct {
	mock.Mock
}

func (m *MockDocumentBackend) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentBackend) Presign(ctx context.Context, filename, contentType string) (*backend.PresignGrant, error) {
	args := m.Called(ctx, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PresignGrant), args.Error(1)
}

func (m *MockDocumentBackend) Upload(ctx context.Context, grant *backend.PresignGrant, filename, contentType string, r io.Reader) error {
	args := m.Called(ctx, grant, filename, contentType, r)
	return args.Error(0)
}

type MockChatBackend struct {
	mock.Mock
}

func (m *MockChatBackend) Ask(ctx context.Context, req backend.AskRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
