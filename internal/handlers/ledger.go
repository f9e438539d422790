package handlers

import (
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"
	"borewell/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type LedgerHandler struct {
	ledgerService ledger.Service
}

func NewLedgerHandler(ledgerService ledger.Service) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// OpenAccount creates the party's wallet; an existing wallet is returned as is.
func (h *LedgerHandler) OpenAccount(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	account, err := h.ledgerService.OpenAccount(c.UserContext(), party)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"account": account})
}

func (h *LedgerHandler) GetAccount(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	account, err := h.ledgerService.Account(c.UserContext(), party)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"account": account})
}

func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	balance, err := h.ledgerService.Balance(c.UserContext(), party)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *LedgerHandler) ListEntries(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	pagination := utils.GetPagination(c, 1, 20)
	entries, total, err := h.ledgerService.Entries(c.UserContext(), party, repositories.EntryFilter{
		Type:      models.TransactionType(c.Query("type")),
		Status:    models.EntryStatus(c.Query("status")),
		BookingID: queryUint(c, "booking_id"),
		Limit:     pagination.Limit,
		Offset:    pagination.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(entries, pagination))
}

func (h *LedgerHandler) GetEntry(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	entry, err := h.ledgerService.Entry(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"entry": entry})
}

// RetryEntry re-runs a FAILED entry immediately.
func (h *LedgerHandler) RetryEntry(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	res, err := h.ledgerService.Retry(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"entry": res.Entry, "account": res.Account})
}

func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	party, err := paramParty(c)
	if err != nil {
		return utils.Error(c, err)
	}
	res, err := h.ledgerService.Reconcile(c.UserContext(), party)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"reconciliation": res})
}

func (h *LedgerHandler) ReconcileAll(c *fiber.Ctx) error {
	results, err := h.ledgerService.ReconcileAll(c.UserContext())
	if err != nil {
		return utils.Error(c, err)
	}
	corrected := 0
	for _, r := range results {
		if r.Corrected {
			corrected++
		}
	}
	return utils.Success(c, fiber.Map{
		"accounts":  len(results),
		"corrected": corrected,
		"results":   results,
	})
}
