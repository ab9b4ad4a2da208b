package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"chatgw/internal/auth"
	"chatgw/internal/http/middleware"
	"chatgw/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal; business rules live in the service layer.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	tokens *auth.Manager,
	sessions service.SessionService,
	documents service.DocumentDirectory,
	chats service.ChatService,
) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	authGroup := app.Group("/auth")
	authGroup.Post("/login", Login(sessions, tokens))
	authGroup.Post("/register", Register(sessions, tokens))
	authGroup.Post("/logout", middleware.SessionGuard(tokens), Logout(sessions))

	guard := middleware.SessionGuard(tokens)

	docGroup := app.Group("/documents", guard)
	docGroup.Get("/", ListDocuments(documents))
	docGroup.Post("/", UploadDocument(documents))
	// Static segment registered before the wildcard so it wins the match.
	docGroup.Post("/refresh", RefreshDocuments(documents))
	// Document ids are object keys and may contain slashes, so a plain :id
	// parameter cannot address them. The + wildcard matches the rest of the path.
	docGroup.Get("/+", GetDocument(documents))
	docGroup.Delete("/+", DeleteDocument(documents))

	chatGroup := app.Group("/chats", guard)
	chatGroup.Get("/", ListChats(chats))
	chatGroup.Post("/", CreateChat(chats))
	chatGroup.Get("/active", ActiveChat(chats))
	chatGroup.Get("/active/documents", ActiveChatDocuments(chats))
	chatGroup.Post("/active/messages", SendMessage(chats))
	chatGroup.Delete("/:id", DeleteChat(chats))
	chatGroup.Post("/:id/select", SelectChat(chats))
	chatGroup.Put("/:id/documents", SetChatDocuments(chats))
}
