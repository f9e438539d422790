package handlers

import (
	"strings"

	"borewell/internal/repositories"
	"borewell/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// DeviceHandler registers push tokens used by the FCM notifier.
type DeviceHandler struct {
	devices repositories.DeviceRepository
}

func NewDeviceHandler(devices repositories.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

func (h *DeviceHandler) RegisterDevice(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return utils.BadRequest(c, "token is required")
	}
	if err := h.devices.SaveDevice(c.UserContext(), party, token); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"registered": true})
}
