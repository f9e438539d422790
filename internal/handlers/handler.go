// Package handlers contains the fiber handlers of the admin API. Handlers
// only parse input and map service errors to HTTP responses; every rule is
// enforced by the services.
package handlers

import (
	"strconv"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// extractClaims returns the claims stored by the auth middleware.
func extractClaims(c *fiber.Ctx) (*models.AdminClaims, error) {
	claims, ok := c.Locals("claims").(*models.AdminClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// actorID is the admin performing the request.
func actorID(c *fiber.Ctx) uint {
	claims, err := extractClaims(c)
	if err != nil {
		return 0
	}
	return claims.AdminID
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrMissingField.WithMessage("invalid %s", name)
	}
	return uint(id), nil
}

func paramParty(c *fiber.Ctx) (models.PartyRef, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	party := models.PartyRef{Type: models.PartyType(c.Params("type")), ID: uint(id)}
	if err != nil || !party.Valid() {
		return models.PartyRef{}, apperr.ErrInvalidParty.WithMessage("invalid party %s/%s", c.Params("type"), c.Params("id"))
	}
	return party, nil
}

func queryUint(c *fiber.Ctx, name string) *uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}

type reasonInput struct {
	Reason string `json:"reason"`
}

type notesInput struct {
	Notes string `json:"notes"`
}
