// Package payout originates outbound payouts for approved withdrawals.
// Originating a payout never moves ledger money; the ledger debit happens
// when the withdrawal is processed.
package payout

import (
	"context"
	"fmt"

	apperr "borewell/internal/errors"
	"borewell/internal/models"
	"borewell/internal/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v72"
	stripepayout "github.com/stripe/stripe-go/v72/payout"
	"go.uber.org/zap"
)

// Request describes one payout order.
type Request struct {
	WithdrawalID uint
	Party        models.PartyRef
	Amount       float64
	Currency     string
	// Destination is the connected account to pay out from, if any.
	Destination string
}

// Result is the gateway's answer to a payout order.
type Result struct {
	Reference string
	Status    string
	Details   models.JSON
}

// Gateway originates payouts.
type Gateway interface {
	CreatePayout(ctx context.Context, req Request) (*Result, error)
}

// NoopGateway accepts every payout without contacting a provider. It is
// used when no provider key is configured.
type NoopGateway struct{}

func (NoopGateway) CreatePayout(_ context.Context, req Request) (*Result, error) {
	return &Result{
		Reference: "noop_" + uuid.NewString(),
		Status:    "skipped",
		Details:   models.JSON{"withdrawal_id": req.WithdrawalID},
	}, nil
}

// StripeGateway creates Stripe payouts.
type StripeGateway struct {
	currency  string
	newPayout func(*stripe.PayoutParams) (*stripe.Payout, error)
	logger    *zap.Logger
}

func NewStripeGateway(secretKey, currency string, log *zap.Logger) *StripeGateway {
	if log == nil {
		log = zap.NewNop()
	}
	client := stripepayout.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
	return &StripeGateway{
		currency:  currency,
		newPayout: client.New,
		logger:    log.Named("payout"),
	}
}

func (g *StripeGateway) CreatePayout(ctx context.Context, req Request) (*Result, error) {
	if req.Amount <= 0 {
		return nil, apperr.ErrInvalidAmount.WithMessage("payout amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(utils.MinorUnits(req.Amount)),
		Currency:    stripe.String(currency),
		Description: stripe.String(fmt.Sprintf("Withdrawal %d for %s", req.WithdrawalID, req.Party)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("withdrawal-%d", req.WithdrawalID))
	params.AddMetadata("withdrawal_id", fmt.Sprint(req.WithdrawalID))
	params.AddMetadata("party", req.Party.String())
	if req.Destination != "" {
		params.SetStripeAccount(req.Destination)
	}

	p, err := g.newPayout(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payout failed: %w", err)
	}

	g.logger.Info("payout created",
		zap.Uint("withdrawal_id", req.WithdrawalID),
		zap.String("payout_id", p.ID),
		zap.String("status", string(p.Status)))

	return &Result{
		Reference: p.ID,
		Status:    string(p.Status),
		Details: models.JSON{
			"provider":     "stripe",
			"amount":       p.Amount,
			"currency":     string(p.Currency),
			"arrival_date": p.ArrivalDate,
		},
	}, nil
}
