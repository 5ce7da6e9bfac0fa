package utils

import (
	"errors"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserClaims extracts the user claims from the Fiber context.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.UserClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// GetIdentity returns the identity resolved by the auth middleware.
func GetIdentity(c *fiber.Ctx) (models.Identity, error) {
	id, ok := c.Locals("identity").(models.Identity)
	if !ok {
		return models.Identity{}, errors.New("identity not found in context")
	}
	return id, nil
}
