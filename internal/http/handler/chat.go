package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatgw/internal/service"
)

type createChatRequest struct {
	Title string `json:"title"`
}

type setDocumentsRequest struct {
	DocumentIDs []string `json:"documentIds"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// ListChats returns every conversation in its current order.
//
// @Summary      List conversations
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.Chat
// @Router       /chats [get]
func ListChats(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(chats.Chats())
	}
}

// CreateChat allocates a new conversation and makes it active.
//
// @Summary      Create a conversation
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        chat  body      createChatRequest  false  "Optional title"
// @Success      201   {object}  model.Chat
// @Router       /chats [post]
func CreateChat(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createChatRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}

		chat, err := chats.Create(c.UserContext(), req.Title)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(chat)
	}
}

// DeleteChat removes a conversation. When the active one is deleted the
// pointer falls to the first remaining conversation.
//
// @Summary      Delete a conversation
// @Tags         chats
// @Security     BearerAuth
// @Param        id  path  string  true  "Chat ID"
// @Success      204
// @Failure      404  {object}  errorPayload
// @Router       /chats/{id} [delete]
func DeleteChat(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := chats.Delete(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, service.ErrChatNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SelectChat switches the active conversation pointer. An unknown id clears
// the pointer rather than failing.
//
// @Summary      Select the active conversation
// @Tags         chats
// @Security     BearerAuth
// @Param        id  path  string  true  "Chat ID"
// @Success      204
// @Router       /chats/{id}/select [post]
func SelectChat(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chats.SetActive(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetChatDocuments replaces the document association of a conversation.
//
// @Summary      Associate documents with a conversation
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Param        id    path  string               true  "Chat ID"
// @Param        body  body  setDocumentsRequest  true  "Document IDs"
// @Success      204
// @Failure      404  {object}  errorPayload
// @Router       /chats/{id}/documents [put]
func SetChatDocuments(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req setDocumentsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		if err := chats.SetDocuments(c.UserContext(), c.Params("id"), req.DocumentIDs); err != nil {
			if errors.Is(err, service.ErrChatNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ActiveChat returns the active conversation.
//
// @Summary      Get the active conversation
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  model.Chat
// @Failure      404  {object}  errorPayload
// @Router       /chats/active [get]
func ActiveChat(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chat := chats.Active()
		if chat == nil {
			return writeError(c, fiber.StatusNotFound, "NO_ACTIVE_CHAT", "no active conversation")
		}
		return c.JSON(chat)
	}
}

// ActiveChatDocuments returns the documents associated with the active
// conversation, in directory order.
//
// @Summary      List documents of the active conversation
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.Document
// @Router       /chats/active/documents [get]
func ActiveChatDocuments(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(chats.DocumentsForActive())
	}
}

// SendMessage appends a user message to the active conversation, asks the
// chat endpoint for an answer, and returns the updated conversation. The
// user message survives even when the endpoint fails.
//
// @Summary      Send a message to the active conversation
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        message  body      sendMessageRequest  true  "Message content"
// @Success      200      {object}  model.Chat
// @Failure      400      {object}  errorPayload
// @Failure      404      {object}  errorPayload
// @Failure      502      {object}  errorPayload
// @Router       /chats/active/messages [post]
func SendMessage(chats service.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Content == "" {
			return writeError(c, fiber.StatusBadRequest, "CONTENT_REQUIRED", "content is required")
		}

		chat, err := chats.Send(c.UserContext(), req.Content)
		if err != nil {
			if errors.Is(err, service.ErrNoActiveChat) {
				return writeError(c, fiber.StatusNotFound, "NO_ACTIVE_CHAT", "no active conversation")
			}
			if errors.Is(err, service.ErrChatNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversation not found")
			}
			if isUpstreamError(err) {
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "chat endpoint unavailable")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(chat)
	}
}
