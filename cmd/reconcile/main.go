// Command reconcile recomputes wallet balances from their SUCCESS ledger
// entries and corrects accounts that drifted.
//
//	reconcile                  # every wallet
//	reconcile -party vendor:42 # one wallet
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"borewell/internal/config"
	"borewell/internal/logger"
	"borewell/internal/models"
	"borewell/internal/repositories"
	"borewell/internal/services/ledger"

	"go.uber.org/zap"
)

func main() {
	partyFlag := flag.String("party", "", "reconcile a single wallet, as type:id")
	flag.Parse()

	config.LoadEnv()
	settings := config.Load()

	zlog, err := logger.New(config.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	os.Exit(logger.ExitCode(zlog, "reconciliation failed", run(settings, *partyFlag, zlog)))
}

func run(settings config.Settings, partyArg string, zlog *zap.Logger) error {
	var target *models.PartyRef
	if partyArg != "" {
		party, err := parseParty(partyArg)
		if err != nil {
			return fmt.Errorf("invalid -party: %w", err)
		}
		target = &party
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(settings.DB, zlog)
	if err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			zlog.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	ledgerService := ledger.NewService(repositories.NewLedgerRepository(db), nil, ledger.Config{}, nil, zlog)

	var results []ledger.ReconcileResult
	if target != nil {
		res, err := ledgerService.Reconcile(ctx, *target)
		if err != nil {
			return err
		}
		results = append(results, *res)
	} else {
		// Partial failures still report what was reconciled.
		results, err = ledgerService.ReconcileAll(ctx)
	}

	corrected := 0
	for _, r := range results {
		if !r.Corrected {
			continue
		}
		corrected++
		zlog.Info("balance corrected",
			zap.Stringer("party", r.Party),
			zap.Float64("stored", r.Stored),
			zap.Float64("computed", r.Computed))
	}
	zlog.Info("reconciliation finished",
		zap.Int("wallets", len(results)),
		zap.Int("corrected", corrected))
	return err
}

func parseParty(s string) (models.PartyRef, error) {
	kind, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return models.PartyRef{}, fmt.Errorf("expected type:id, got %q", s)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return models.PartyRef{}, fmt.Errorf("invalid id %q: %w", rawID, err)
	}
	party := models.PartyRef{Type: models.PartyType(kind), ID: uint(id)}
	if !party.Valid() {
		return models.PartyRef{}, fmt.Errorf("unknown party %q", s)
	}
	return party, nil
}
