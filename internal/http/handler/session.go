package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatgw/internal/auth"
	"chatgw/internal/model"
	"chatgw/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login authenticates with email and password and returns a session token.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      loginRequest  true  "Credentials"
// @Success      200          {object}  sessionResponse
// @Failure      400          {object}  errorPayload
// @Router       /auth/login [post]
func Login(sessions service.SessionService, tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		user, err := sessions.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		token, err := tokens.Issue(user)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(sessionResponse{Token: token, User: user})
	}
}

// Register creates a session for a new identity and returns a session token.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        details  body      registerRequest  true  "Registration details"
// @Success      201      {object}  sessionResponse
// @Failure      400      {object}  errorPayload
// @Router       /auth/register [post]
func Register(sessions service.SessionService, tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		user, err := sessions.Register(c.UserContext(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "name, email and password are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		token, err := tokens.Issue(user)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(sessionResponse{Token: token, User: user})
	}
}

// Logout clears the persisted session. Idempotent.
//
// @Summary      Log out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func Logout(sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sessions.Logout(c.UserContext()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
