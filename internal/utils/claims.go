package utils

import (
	"errors"

	"hydrofund/internal/models"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// SetActor stores the authenticated caller on the request.
func SetActor(c *fiber.Ctx, claims *models.UserClaims) {
	c.Locals("claims", claims)
	c.Locals(actorKey, models.Actor{UserID: claims.UserID, Role: claims.Role})
}

// GetActor extracts the caller placed by the auth middleware.
func GetActor(c *fiber.Ctx) (models.Actor, error) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	if !ok || actor.UserID == 0 {
		return models.Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}
