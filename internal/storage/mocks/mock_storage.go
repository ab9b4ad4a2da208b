package mocks

import (
	"context"
	"time"

	"chatgw/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) PresignPost(ctx context.Context, key, contentType string, expiry time.Duration) (*storage.PostGrant, error) {
	args := m.Called(ctx, key, contentType, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PostGrant), args.Error(1)
}
