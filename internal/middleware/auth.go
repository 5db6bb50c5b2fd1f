package middleware

import (
	"context"
	"strings"

	"plastikhb/internal/models"
	"plastikhb/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// SessionVerifier validates session tokens.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*models.Session, error)
}

// AuthRequired is a Fiber middleware that admits requests carrying a live session token,
// either as "Authorization: Bearer <token>" or as the bare token.
func AuthRequired(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
		}

		session, err := verifier.VerifySession(c.UserContext(), token)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Path()).Msg("session verification failed")
			return err
		}

		// Store the session in Fiber context for subsequent handlers
		c.Locals("session_id", session.ID)
		c.Locals("user_id", session.UserID)

		return c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
