package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatgw/internal/auth"
	"chatgw/internal/backend"
	"chatgw/internal/model"
	"chatgw/internal/service"
	serviceMocks "chatgw/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *auth.Manager {
	t.Helper()
	tokens, err := auth.NewManager("test-secret", "chatgw", time.Hour)
	require.NoError(t, err)
	return tokens
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockSessionService)
	app := fiber.New()
	app.Post("/auth/login", Login(mockSvc, testManager(t)))

	t.Run("success", func(t *testing.T) {
		user := &model.User{ID: "u1", Name: "alice", Email: "alice@example.com"}
		mockSvc.On("Login", mock.Anything, "alice@example.com", "secret").Return(user, nil).Once()

		req := jsonRequest(http.MethodPost, "/auth/login", loginRequest{Email: "alice@example.com", Password: "secret"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result sessionResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "alice@example.com", result.User.Email)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "", "").Return(nil, service.ErrValidation).Once()

		req := jsonRequest(http.MethodPost, "/auth/login", loginRequest{})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})
}

func TestRegister(t *testing.T) {
	mockSvc := new(serviceMocks.MockSessionService)
	app := fiber.New()
	app.Post("/auth/register", Register(mockSvc, testManager(t)))

	t.Run("success", func(t *testing.T) {
		user := &model.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
		mockSvc.On("Register", mock.Anything, "Alice", "alice@example.com", "secret").Return(user, nil).Once()

		req := jsonRequest(http.MethodPost, "/auth/register", registerRequest{Name: "Alice", Email: "alice@example.com", Password: "secret"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result sessionResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "Alice", result.User.Name)
		mockSvc.AssertExpectations(t)
	})
}

func TestLogout(t *testing.T) {
	mockSvc := new(serviceMocks.MockSessionService)
	app := fiber.New()
	app.Post("/auth/logout", Logout(mockSvc))

	mockSvc.On("Logout", mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestListDocuments(t *testing.T) {
	mockDir := new(serviceMocks.MockDocumentDirectory)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockDir))

	docs := []model.Document{{ID: "doc-1", Name: "report.pdf"}}
	mockDir.On("All").Return(docs).Once()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result []model.Document
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Len(t, result, 1)
	assert.Equal(t, "report.pdf", result[0].Name)
	mockDir.AssertExpectations(t)
}

func TestUploadDocument(t *testing.T) {
	mockDir := new(serviceMocks.MockDocumentDirectory)
	app := fiber.New()
	app.Post("/documents", UploadDocument(mockDir))

	multipartBody := func(filename string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", filename)
		part.Write([]byte("hello world"))
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		expected := &model.Document{ID: "uploads/test.txt", Name: "test.txt", Pending: true}
		mockDir.On("Upload", mock.Anything, "test.txt", mock.Anything, mock.Anything, mock.Anything).Return(expected, nil).Once()

		body, ct := multipartBody("test.txt")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		assert.True(t, result.Pending)
		mockDir.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		mockDir.On("Upload", mock.Anything, "test.txt", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &backend.PresignError{Status: 500}).Once()

		body, ct := multipartBody("test.txt")
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
		mockDir.AssertExpectations(t)
	})
}

func TestRefreshDocuments(t *testing.T) {
	t.Run("success returns merged collection", func(t *testing.T) {
		mockDir := new(serviceMocks.MockDocumentDirectory)
		app := fiber.New()
		app.Post("/documents/refresh", RefreshDocuments(mockDir))

		mockDir.On("Refresh", mock.Anything).Return(nil).Once()
		mockDir.On("All").Return([]model.Document{{ID: "doc-1"}, {ID: "doc-2"}}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/refresh", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 2)
		mockDir.AssertExpectations(t)
	})

	t.Run("listing unavailable", func(t *testing.T) {
		mockDir := new(serviceMocks.MockDocumentDirectory)
		app := fiber.New()
		app.Post("/documents/refresh", RefreshDocuments(mockDir))

		mockDir.On("Refresh", mock.Anything).Return(&backend.ListError{Status: 503}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents/refresh", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
		mockDir.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockDir := new(serviceMocks.MockDocumentDirectory)
	app := fiber.New()
	app.Get("/documents/+", GetDocument(mockDir))

	t.Run("found", func(t *testing.T) {
		doc := &model.Document{ID: "doc-1", Name: "report.pdf"}
		mockDir.On("Lookup", "doc-1").Return(doc, true).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "doc-1", result.ID)
		mockDir.AssertExpectations(t)
	})

	t.Run("object key with slashes", func(t *testing.T) {
		// Ids minted by the presign flow are object keys like
		// uploads/<uuid>-<name>; the route must match across segments.
		doc := &model.Document{ID: "uploads/report.pdf", Name: "report.pdf"}
		mockDir.On("Lookup", "uploads/report.pdf").Return(doc, true).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/uploads/report.pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "uploads/report.pdf", result.ID)
		mockDir.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockDir.On("Lookup", "missing").Return(nil, false).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockDir.AssertExpectations(t)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockDir := new(serviceMocks.MockDocumentDirectory)
	app := fiber.New()
	app.Delete("/documents/+", DeleteDocument(mockDir))

	t.Run("success", func(t *testing.T) {
		mockDir.On("Remove", mock.Anything, "doc-1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockDir.AssertExpectations(t)
	})

	t.Run("object key with slashes", func(t *testing.T) {
		mockDir.On("Remove", mock.Anything, "uploads/report.pdf").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/uploads/report.pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockDir.AssertExpectations(t)
	})
}

func TestCreateChat(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Post("/chats", CreateChat(mockChats))

	t.Run("with title", func(t *testing.T) {
		chat := &model.Chat{ID: "c1", Title: "Quarterly numbers"}
		mockChats.On("Create", mock.Anything, "Quarterly numbers").Return(chat, nil).Once()

		req := jsonRequest(http.MethodPost, "/chats", createChatRequest{Title: "Quarterly numbers"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Chat
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "c1", result.ID)
		mockChats.AssertExpectations(t)
	})

	t.Run("empty body uses generated title", func(t *testing.T) {
		chat := &model.Chat{ID: "c2", Title: "New Chat 2"}
		mockChats.On("Create", mock.Anything, "").Return(chat, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/chats", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockChats.AssertExpectations(t)
	})
}

func TestDeleteChat(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Delete("/chats/:id", DeleteChat(mockChats))

	t.Run("success", func(t *testing.T) {
		mockChats.On("Delete", mock.Anything, "c1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/chats/c1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockChats.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockChats.On("Delete", mock.Anything, "missing").Return(service.ErrChatNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/chats/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockChats.AssertExpectations(t)
	})
}

func TestSelectChat(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Post("/chats/:id/select", SelectChat(mockChats))

	mockChats.On("SetActive", "c1").Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/c1/select", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockChats.AssertExpectations(t)
}

func TestSetChatDocuments(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Put("/chats/:id/documents", SetChatDocuments(mockChats))

	t.Run("success", func(t *testing.T) {
		mockChats.On("SetDocuments", mock.Anything, "c1", []string{"doc-1", "doc-2"}).Return(nil).Once()

		req := jsonRequest(http.MethodPut, "/chats/c1/documents", setDocumentsRequest{DocumentIDs: []string{"doc-1", "doc-2"}})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockChats.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockChats.On("SetDocuments", mock.Anything, "missing", []string{"doc-1"}).Return(service.ErrChatNotFound).Once()

		req := jsonRequest(http.MethodPut, "/chats/missing/documents", setDocumentsRequest{DocumentIDs: []string{"doc-1"}})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockChats.AssertExpectations(t)
	})
}

func TestActiveChat(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Get("/chats/active", ActiveChat(mockChats))

	t.Run("active set", func(t *testing.T) {
		mockChats.On("Active").Return(&model.Chat{ID: "c1"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/chats/active", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockChats.AssertExpectations(t)
	})

	t.Run("no active conversation", func(t *testing.T) {
		mockChats.On("Active").Return(nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/chats/active", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_ACTIVE_CHAT", res.Error.Code)
		mockChats.AssertExpectations(t)
	})
}

func TestSendMessage(t *testing.T) {
	mockChats := new(serviceMocks.MockChatService)
	app := fiber.New()
	app.Post("/chats/active/messages", SendMessage(mockChats))

	t.Run("success", func(t *testing.T) {
		updated := &model.Chat{ID: "c1", Messages: []model.Message{
			{Role: model.RoleUser, Content: "What does the report say?"},
			{Role: model.RoleAssistant, Content: "It says revenue grew."},
		}}
		mockChats.On("Send", mock.Anything, "What does the report say?").Return(updated, nil).Once()

		req := jsonRequest(http.MethodPost, "/chats/active/messages", sendMessageRequest{Content: "What does the report say?"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Chat
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Messages, 2)
		mockChats.AssertExpectations(t)
	})

	t.Run("empty content", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/chats/active/messages", sendMessageRequest{})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONTENT_REQUIRED", res.Error.Code)
	})

	t.Run("no active conversation", func(t *testing.T) {
		mockChats.On("Send", mock.Anything, "hello").Return(nil, service.ErrNoActiveChat).Once()

		req := jsonRequest(http.MethodPost, "/chats/active/messages", sendMessageRequest{Content: "hello"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_ACTIVE_CHAT", res.Error.Code)
		mockChats.AssertExpectations(t)
	})

	t.Run("chat endpoint failure", func(t *testing.T) {
		mockChats.On("Send", mock.Anything, "hello").Return(nil, &backend.ChatError{Status: 500}).Once()

		req := jsonRequest(http.MethodPost, "/chats/active/messages", sendMessageRequest{Content: "hello"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
		mockChats.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	tokens := testManager(t)
	sessions := new(serviceMocks.MockSessionService)
	documents := new(serviceMocks.MockDocumentDirectory)
	chats := new(serviceMocks.MockChatService)
	RegisterRoutes(app, nil, tokens, sessions, documents, chats)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("guarded route rejects anonymous requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("guarded route accepts a valid token", func(t *testing.T) {
		token, err := tokens.Issue(&model.User{ID: "u1", Email: "alice@example.com"})
		require.NoError(t, err)
		documents.On("All").Return([]model.Document{}).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		documents.AssertExpectations(t)
	})

	t.Run("document routes address object keys with slashes", func(t *testing.T) {
		token, err := tokens.Issue(&model.User{ID: "u1", Email: "alice@example.com"})
		require.NoError(t, err)
		doc := &model.Document{ID: "uploads/report.pdf", Name: "report.pdf"}
		documents.On("Lookup", "uploads/report.pdf").Return(doc, true).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/uploads/report.pdf", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		documents.AssertExpectations(t)
	})
}
