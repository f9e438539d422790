package handlers

import (
	"time"

	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/withdrawal"
	"borewell/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawalService withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// CreateWithdrawal is called on behalf of a party.
func (h *WithdrawalHandler) CreateWithdrawal(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	var input struct {
		Amount      float64 `json:"amount"`
		Destination string  `json:"destination"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.withdrawalService.Create(c.UserContext(), withdrawal.CreateRequest{
		Party:       party,
		Amount:      input.Amount,
		Destination: input.Destination,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"withdrawal": w})
}

func (h *WithdrawalHandler) ListPartyWithdrawals(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	return h.list(c, &party)
}

func (h *WithdrawalHandler) ListWithdrawals(c *fiber.Ctx) error {
	return h.list(c, nil)
}

func (h *WithdrawalHandler) list(c *fiber.Ctx, party *models.PartyRef) error {
	pagination := utils.GetPagination(c, 1, 20)
	list, total, err := h.withdrawalService.List(c.UserContext(), repositories.WithdrawalFilter{
		Party:  party,
		Status: models.WithdrawalStatus(c.Query("status")),
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(list, pagination))
}

func (h *WithdrawalHandler) GetWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	w, err := h.withdrawalService.Get(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"withdrawal": w})
}

func (h *WithdrawalHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var input notesInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request format")
	}
	w, err := h.withdrawalService.Approve(c.UserContext(), id, actorID(c), input.Notes)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"withdrawal": w})
}

func (h *WithdrawalHandler) RejectWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var input reasonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	w, err := h.withdrawalService.Reject(c.UserContext(), id, actorID(c), input.Reason)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"withdrawal": w})
}

func (h *WithdrawalHandler) ProcessWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	var input struct {
		TransactionReference string     `json:"transaction_reference"`
		PaymentMethod        string     `json:"payment_method"`
		PaymentDate          *time.Time `json:"payment_date"`
		Notes                string     `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	req := withdrawal.ProcessRequest{
		TransactionReference: input.TransactionReference,
		PaymentMethod:        input.PaymentMethod,
		Notes:                input.Notes,
	}
	if input.PaymentDate != nil {
		req.PaymentDate = *input.PaymentDate
	}
	w, err := h.withdrawalService.Process(c.UserContext(), id, actorID(c), req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"withdrawal": w})
}
