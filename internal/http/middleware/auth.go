package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"chatgw/internal/auth"
)

// SessionLocalKey is the key used to store verified session claims in
// Fiber's context locals.
const SessionLocalKey = "session_claims"

// SessionGuard gates routes behind a valid session token.
//
// Behavior:
// - Reads "Authorization: Bearer <token>" from the request.
// - Verifies the token with the manager.
// - Stores the claims in context locals under SessionLocalKey.
// - Rejects with 401 when the header is missing or the token invalid.
func SessionGuard(tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session token")
		}

		c.Locals(SessionLocalKey, claims)
		return c.Next()
	}
}

// SessionClaims extracts verified claims stored by SessionGuard, if any.
func SessionClaims(c *fiber.Ctx) *auth.Claims {
	if v := c.Locals(SessionLocalKey); v != nil {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
