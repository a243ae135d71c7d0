// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strings"

	"thoughtstream/internal/auth"
	"thoughtstream/internal/models"
	"thoughtstream/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// UserResolver looks up the account for a validated token subject. It returns
// (nil, nil) when no account exists for the ID, so the gate can distinguish
// an unknown subject from a store failure.
type UserResolver func(ctx context.Context, id uint) (*models.User, error)

// Locals keys set by AuthRequired for downstream handlers.
const (
	LocalUserID    = "userID"
	LocalPrincipal = "principal"
)

// AuthRequired returns the middleware that guards protected routes. The
// checks run in a fixed order and the first failure wins: no credentials,
// then header shape, then token validity, then subject resolution. An
// expired token is reported with its own code so clients know to refresh
// rather than re-authenticate.
func AuthRequired(codec *auth.Codec, resolve UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return reject(c, models.CodeNoCredentials, "Authorization header required")
		}

		// Split once at the first space so a token containing spaces is
		// caught here rather than silently truncated. The header must be
		// exactly "<scheme> <token>": any extra whitespace is malformed,
		// never normalized away.
		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found {
			return reject(c, models.CodeMalformedHeader, "Invalid authorization header format")
		}
		if !strings.EqualFold(scheme, "Bearer") {
			return reject(c, models.CodeBadScheme, "Authorization scheme must be Bearer")
		}
		if tokenString == "" || strings.ContainsAny(tokenString, " \t") {
			return reject(c, models.CodeMalformedHeader, "Invalid authorization header format")
		}

		userID, err := codec.Validate(tokenString, auth.KindAccess)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpired):
				return reject(c, models.CodeTokenExpired, "Token has expired")
			case errors.Is(err, auth.ErrMissingSubject):
				return reject(c, models.CodeInvalidToken, "Token does not identify a user")
			default:
				return reject(c, models.CodeInvalidToken, "Invalid token")
			}
		}

		user, err := resolve(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if user == nil {
			return reject(c, models.CodeUnknownSubject, "Token subject no longer exists")
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalPrincipal, user)

		return c.Next()
	}
}

func reject(c *fiber.Ctx, code, message string) error {
	observability.RecordAuthFailure(code)
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewAuthError(code, message))
}

// PrincipalID returns the authenticated user ID stored by AuthRequired,
// or 0 when the request did not pass through the gate.
func PrincipalID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals(LocalUserID).(uint); ok {
		return uid
	}
	return 0
}

// Principal returns the authenticated user stored by AuthRequired.
func Principal(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(LocalPrincipal).(*models.User); ok {
		return u
	}
	return nil
}
