// Package fee turns booking costs into tax, platform fee and vendor payout
// amounts. It is pure and holds no state beyond its configured rates.
package fee

import (
	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultGSTRate         = 0.18
	DefaultPlatformFeeRate = 0.15
)

var half = decimal.NewFromFloat(0.5)

// Config holds the calculator rates. Zero values fall back to the defaults.
type Config struct {
	GSTRate         float64
	PlatformFeeRate float64
}

// Breakdown is the fee split of one base amount.
type Breakdown struct {
	Base        float64 `json:"base"`
	GST         float64 `json:"gst"`
	PlatformFee float64 `json:"platform_fee"`
	VendorNet   float64 `json:"vendor_net"`
}

// Gross is what the vendor is credited before the platform fee is deducted.
func (b Breakdown) Gross() float64 {
	return decimal.NewFromFloat(b.Base).Add(decimal.NewFromFloat(b.GST)).Round(2).InexactFloat64()
}

type Calculator struct {
	gstRate      decimal.Decimal
	platformRate decimal.Decimal
}

func NewCalculator(cfg Config) *Calculator {
	if cfg.GSTRate <= 0 {
		cfg.GSTRate = DefaultGSTRate
	}
	if cfg.PlatformFeeRate <= 0 {
		cfg.PlatformFeeRate = DefaultPlatformFeeRate
	}
	return &Calculator{
		gstRate:      decimal.NewFromFloat(cfg.GSTRate),
		platformRate: decimal.NewFromFloat(cfg.PlatformFeeRate),
	}
}

// PlatformFeeRate returns the configured platform fee rate.
func (c *Calculator) PlatformFeeRate() float64 {
	return c.platformRate.InexactFloat64()
}

// Calculate splits base into GST, platform fee and the vendor's net payout.
// Every component is rounded to two decimals before it is combined.
func (c *Calculator) Calculate(base float64) Breakdown {
	b := decimal.NewFromFloat(base).Round(2)
	gst := b.Mul(c.gstRate).Round(2)
	platformFee := b.Mul(c.platformRate).Round(2)
	net := b.Sub(platformFee).Add(gst).Round(2)

	return Breakdown{
		Base:        b.InexactFloat64(),
		GST:         gst.InexactFloat64(),
		PlatformFee: platformFee.InexactFloat64(),
		VendorNet:   net.InexactFloat64(),
	}
}

// BookingTotal is the service fee plus travel charges.
func (c *Calculator) BookingTotal(baseServiceFee, travelCharges float64) float64 {
	return decimal.NewFromFloat(baseServiceFee).
		Add(decimal.NewFromFloat(travelCharges)).
		Round(2).InexactFloat64()
}

// InstallmentBase is the base of each of the two vendor installments.
func (c *Calculator) InstallmentBase(total float64) float64 {
	return decimal.NewFromFloat(total).Mul(half).Round(2).InexactFloat64()
}

// VendorFinalAmount computes the vendor's final installment: base50 plus the
// incentive on SUCCESS, base50 minus the penalty (floored at zero) on FAILED.
func (c *Calculator) VendorFinalAmount(total float64, outcome models.Outcome, incentive, penalty float64) (float64, error) {
	if incentive < 0 || penalty < 0 {
		return 0, apperr.ErrInvalidAmount.WithMessage("reward and penalty must not be negative")
	}
	if incentive > 0 && penalty > 0 {
		return 0, apperr.ErrRewardAndPenalty
	}

	base := decimal.NewFromFloat(c.InstallmentBase(total))
	switch outcome {
	case models.OutcomeSuccess:
		if penalty > 0 {
			return 0, apperr.ErrRewardPolarity.WithMessage("a penalty cannot be applied to a successful outcome")
		}
		return base.Add(decimal.NewFromFloat(incentive)).Round(2).InexactFloat64(), nil
	case models.OutcomeFailed:
		if incentive > 0 {
			return 0, apperr.ErrRewardPolarity.WithMessage("a reward cannot be applied to a failed outcome")
		}
		amount := base.Sub(decimal.NewFromFloat(penalty)).Round(2)
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		return amount.InexactFloat64(), nil
	default:
		return 0, apperr.ErrInvalidOutcome.WithMessage("unknown outcome %q", outcome)
	}
}
