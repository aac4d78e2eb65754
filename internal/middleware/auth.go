// Package middleware provides the fiber middleware that turns a bearer token
// into a request Actor and guards admin and command routes.
package middleware

import (
	"log"
	"strings"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the identity service's JWT. The ledger trusts the
// user_id and role it carries and keeps no session of its own.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

// Handler validates the bearer token and stores the Actor on the request.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		log.Printf("token validation error: %v", err)
		return utils.Unauthorized(c, "invalid token")
	}

	utils.SetActor(c, claims)
	return c.Next()
}

// AdminAuthMiddleware rejects callers without the admin role.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	actor, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}
	if actor.Role != models.RoleAdmin {
		log.Printf("access denied: user %d has role %s, not admin", actor.UserID, actor.Role)
		return utils.RespondError(c, apperrors.ErrForbidden)
	}
	return c.Next()
}
