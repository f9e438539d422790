// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"borewell/internal/handlers"
	"borewell/internal/middleware"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"
	"borewell/internal/services/retry"
	"borewell/internal/services/settlement"
	"borewell/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Auth         *middleware.AuthMiddleware
	Ledger       ledger.Service
	Withdrawals  withdrawal.Service
	Settlement   settlement.Service
	Retries      retry.Service
	Devices      repositories.DeviceRepository
	HealthChecks map[string]handlers.HealthCheck
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger)
	withdrawalHandler := handlers.NewWithdrawalHandler(deps.Withdrawals)
	bookingHandler := handlers.NewBookingHandler(deps.Settlement)
	retryHandler := handlers.NewRetryHandler(deps.Retries)
	deviceHandler := handlers.NewDeviceHandler(deps.Devices)

	app.Get("/health", healthHandler.Health)

	api := app.Group("/api", deps.Auth.Handler)

	// Party-facing routes. The caller's identity is asserted by the token.
	parties := api.Group("/parties/:type/:id")
	parties.Post("/withdrawals", middleware.HasPermission(models.PermissionWithdrawalCreate), withdrawalHandler.CreateWithdrawal)
	parties.Get("/withdrawals", middleware.HasPermission(models.PermissionWithdrawalCreate), withdrawalHandler.ListPartyWithdrawals)
	parties.Post("/devices", middleware.HasPermission(models.PermissionWithdrawalCreate), deviceHandler.RegisterDevice)

	admin := api.Group("/admin", middleware.AdminOnly)
	setupLedgerRoutes(admin, ledgerHandler)
	setupWithdrawalRoutes(admin, withdrawalHandler)
	setupBookingRoutes(admin, bookingHandler)
	setupRetryRoutes(admin, retryHandler)
}

func setupLedgerRoutes(router fiber.Router, h *handlers.LedgerHandler) {
	read := middleware.HasPermission(models.PermissionLedgerRead)
	write := middleware.HasPermission(models.PermissionLedgerWrite)

	wallets := router.Group("/wallets")
	wallets.Post("/:type/:id", write, h.OpenAccount)
	wallets.Get("/:type/:id", read, h.GetAccount)
	wallets.Get("/:type/:id/balance", read, h.GetBalance)
	wallets.Get("/:type/:id/entries", read, h.ListEntries)
	wallets.Post("/:type/:id/reconcile", write, h.Reconcile)
	router.Post("/reconcile", write, h.ReconcileAll)

	entries := router.Group("/ledger/entries")
	entries.Get("/:id", read, h.GetEntry)
	entries.Post("/:id/retry", write, h.RetryEntry)
}

func setupWithdrawalRoutes(router fiber.Router, h *handlers.WithdrawalHandler) {
	review := middleware.HasPermission(models.PermissionWithdrawalReview)

	withdrawals := router.Group("/withdrawals", review)
	withdrawals.Get("/", h.ListWithdrawals)
	withdrawals.Get("/:id", h.GetWithdrawal)
	withdrawals.Post("/:id/approve", h.ApproveWithdrawal)
	withdrawals.Post("/:id/reject", h.RejectWithdrawal)
	withdrawals.Post("/:id/process", h.ProcessWithdrawal)
}

func setupBookingRoutes(router fiber.Router, h *handlers.BookingHandler) {
	bookings := router.Group("/bookings", middleware.HasPermission(models.PermissionSettlementWrite))
	bookings.Post("/", h.CreateBooking)
	bookings.Get("/", h.ListBookings)
	bookings.Get("/:id", h.GetBooking)
	bookings.Post("/:id/accept", h.AcceptBooking)
	bookings.Post("/:id/visit", h.RecordSiteVisit)
	bookings.Post("/:id/report", h.RecordReportUpload)
	bookings.Post("/:id/report/approve", h.ApproveReport)
	bookings.Post("/:id/report/reject", h.RejectReport)
	bookings.Post("/:id/first-installment", h.PayFirstInstallment)
	bookings.Post("/:id/travel-charges", h.RequestTravelCharges)
	bookings.Post("/:id/travel-charges/approve", h.ApproveTravelCharges)
	bookings.Post("/:id/travel-charges/reject", h.RejectTravelCharges)
	bookings.Post("/:id/field-result", h.UploadFieldResult)
	bookings.Post("/:id/field-result/approve", h.ApproveFieldResult)
	bookings.Post("/:id/field-result/reject", h.RejectFieldResult)
	bookings.Post("/:id/settlement/vendor", h.ProcessVendorSettlement)
	bookings.Post("/:id/settlement/user", h.ProcessUserSettlement)
	bookings.Post("/:id/cancel", h.CancelBooking)
}

func setupRetryRoutes(router fiber.Router, h *handlers.RetryHandler) {
	jobs := router.Group("/retry-jobs")
	jobs.Get("/", middleware.HasPermission(models.PermissionLedgerRead), h.ListJobs)
	jobs.Get("/:id", middleware.HasPermission(models.PermissionLedgerRead), h.GetJob)
	jobs.Post("/:id/execute", middleware.HasPermission(models.PermissionRetryWrite), h.ExecuteJob)
	jobs.Post("/:id/requeue", middleware.HasPermission(models.PermissionRetryWrite), h.RequeueJob)
}
