package handlers

import (
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/settlement"
	"borewell/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type BookingHandler struct {
	settlementService settlement.Service
}

func NewBookingHandler(settlementService settlement.Service) *BookingHandler {
	return &BookingHandler{settlementService: settlementService}
}

// bookingAction runs fn for the booking named in the path and responds
// with the updated booking.
func (h *BookingHandler) bookingAction(c *fiber.Ctx, fn func(id uint) (*models.Booking, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	b, err := fn(id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"booking": b})
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var input settlement.BookingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	b, err := h.settlementService.CreateBooking(c.UserContext(), input)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"booking": b})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	pagination := utils.GetPagination(c, 1, 20)
	filter := repositories.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}
	if id := queryUint(c, "vendor_id"); id != nil {
		filter.VendorID = *id
	}
	if id := queryUint(c, "user_id"); id != nil {
		filter.UserID = *id
	}

	list, total, err := h.settlementService.List(c.UserContext(), filter)
	if err != nil {
		return utils.Error(c, err)
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(list, pagination))
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.Get(c.UserContext(), id)
	})
}

func (h *BookingHandler) AcceptBooking(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.AcceptBooking(c.UserContext(), id)
	})
}

func (h *BookingHandler) RecordSiteVisit(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RecordSiteVisit(c.UserContext(), id)
	})
}

func (h *BookingHandler) RecordReportUpload(c *fiber.Ctx) error {
	var input struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RecordReportUpload(c.UserContext(), id, input.URL)
	})
}

func (h *BookingHandler) ApproveReport(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.ApproveReport(c.UserContext(), id, actorID(c))
	})
}

func (h *BookingHandler) RejectReport(c *fiber.Ctx) error {
	var input reasonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RejectReport(c.UserContext(), id, actorID(c), input.Reason)
	})
}

func (h *BookingHandler) PayFirstInstallment(c *fiber.Ctx) error {
	var input struct {
		Reference string `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.PayFirstInstallment(c.UserContext(), id, actorID(c), input.Reference)
	})
}

func (h *BookingHandler) RequestTravelCharges(c *fiber.Ctx) error {
	var input struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RequestTravelCharges(c.UserContext(), id, input.Amount, input.Reason)
	})
}

func (h *BookingHandler) ApproveTravelCharges(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.ApproveTravelCharges(c.UserContext(), id, actorID(c))
	})
}

func (h *BookingHandler) RejectTravelCharges(c *fiber.Ctx) error {
	var input reasonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RejectTravelCharges(c.UserContext(), id, actorID(c), input.Reason)
	})
}

func (h *BookingHandler) UploadFieldResult(c *fiber.Ctx) error {
	var input struct {
		Outcome models.Outcome `json:"outcome"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.UploadFieldResult(c.UserContext(), id, input.Outcome)
	})
}

func (h *BookingHandler) ApproveFieldResult(c *fiber.Ctx) error {
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.ApproveFieldResult(c.UserContext(), id, actorID(c))
	})
}

func (h *BookingHandler) RejectFieldResult(c *fiber.Ctx) error {
	var input reasonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.RejectFieldResult(c.UserContext(), id, actorID(c), input.Reason)
	})
}

func (h *BookingHandler) ProcessVendorSettlement(c *fiber.Ctx) error {
	var input settlement.VendorSettlementInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.ProcessVendorSettlement(c.UserContext(), id, actorID(c), input)
	})
}

func (h *BookingHandler) ProcessUserSettlement(c *fiber.Ctx) error {
	var input settlement.UserSettlementInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.ProcessUserSettlement(c.UserContext(), id, actorID(c), input)
	})
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	var input settlement.CancelInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	return h.bookingAction(c, func(id uint) (*models.Booking, error) {
		return h.settlementService.CancelBooking(c.UserContext(), id, actorID(c), input)
	})
}
