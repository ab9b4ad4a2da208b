package mocks

import (
	"context"
	"io"

	"chatgw/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockSessionService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionService) Current() *model.User {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.User)
}

func (m *MockSessionService) Authenticating() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockDocumentDirectory struct {
	mock.Mock
}

func (m *MockDocumentDirectory) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentDirectory) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*model.Document, error) {
	args := m.Called(ctx, filename, contentType, size, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentDirectory) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentDirectory) Lookup(id string) (*model.Document, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.Document), args.Bool(1)
}

func (m *MockDocumentDirectory) All() []model.Document {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Document)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Create(ctx context.Context, title string) (*model.Chat, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockChatService) SetActive(id string) {
	m.Called(id)
}

func (m *MockChatService) Active() *model.Chat {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.Chat)
}

func (m *MockChatService) Chats() []model.Chat {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Chat)
}

func (m *MockChatService) Send(ctx context.Context, content string) (*model.Chat, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockChatService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChatService) SetDocuments(ctx context.Context, id string, documentIDs []string) error {
	args := m.Called(ctx, id, documentIDs)
	return args.Error(0)
}

func (m *MockChatService) DocumentsForActive() []model.Document {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Document)
}
