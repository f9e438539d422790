package handlers

import (
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/retry"
	"borewell/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type RetryHandler struct {
	retryService retry.Service
}

func NewRetryHandler(retryService retry.Service) *RetryHandler {
	return &RetryHandler{retryService: retryService}
}

func (h *RetryHandler) ListJobs(c *fiber.Ctx) error {
	pagination := utils.GetPagination(c, 1, 20)
	jobs, total, err := h.retryService.List(c.UserContext(), repositories.RetryJobFilter{
		Status:    models.RetryJobStatus(c.Query("status")),
		BookingID: queryUint(c, "booking_id"),
		Limit:     pagination.Limit,
		Offset:    pagination.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(jobs, pagination))
}

func (h *RetryHandler) GetJob(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	job, err := h.retryService.Get(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"job": job})
}

// ExecuteJob runs an active job now instead of waiting for the worker.
func (h *RetryHandler) ExecuteJob(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	job, err := h.retryService.Execute(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"job": job})
}

func (h *RetryHandler) RequeueJob(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.Error(c, err)
	}
	job, err := h.retryService.Requeue(c.UserContext(), id)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"job": job})
}
