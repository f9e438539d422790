package fee

import (
	"testing"

	apperr "borewell/internal/errors"
	"borewell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	c := NewCalculator(Config{})

	tests := []struct {
		name string
		base float64
		want Breakdown
	}{
		{"round installment", 5000, Breakdown{Base: 5000, GST: 900, PlatformFee: 750, VendorNet: 5150}},
		{"fractional fee", 1250, Breakdown{Base: 1250, GST: 225, PlatformFee: 187.5, VendorNet: 1287.5}},
		{"rounds each component", 333.33, Breakdown{Base: 333.33, GST: 60, PlatformFee: 50, VendorNet: 343.33}},
		{"zero", 0, Breakdown{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Calculate(tt.base))
		})
	}
}

func TestCalculate_CustomRates(t *testing.T) {
	c := NewCalculator(Config{GSTRate: 0.05, PlatformFeeRate: 0.1})
	got := c.Calculate(1000)
	assert.Equal(t, 50.0, got.GST)
	assert.Equal(t, 100.0, got.PlatformFee)
	assert.Equal(t, 950.0, got.VendorNet)
	assert.Equal(t, 1050.0, got.Gross())
}

func TestBookingTotalAndInstallment(t *testing.T) {
	c := NewCalculator(Config{})
	total := c.BookingTotal(9500, 500)
	assert.Equal(t, 10000.0, total)
	assert.Equal(t, 5000.0, c.InstallmentBase(total))
	assert.Equal(t, 0.03, c.InstallmentBase(0.05))
}

func TestVendorFinalAmount(t *testing.T) {
	c := NewCalculator(Config{})

	tests := []struct {
		name      string
		outcome   models.Outcome
		incentive float64
		penalty   float64
		want      float64
		wantErr   error
	}{
		{"success with incentive", models.OutcomeSuccess, 500, 0, 5500, nil},
		{"success without incentive", models.OutcomeSuccess, 0, 0, 5000, nil},
		{"failed with penalty", models.OutcomeFailed, 0, 1200, 3800, nil},
		{"penalty larger than base floors at zero", models.OutcomeFailed, 0, 7000, 0, nil},
		{"penalty on success", models.OutcomeSuccess, 0, 100, 0, apperr.ErrRewardPolarity},
		{"reward on failure", models.OutcomeFailed, 100, 0, 0, apperr.ErrRewardPolarity},
		{"both positive", models.OutcomeSuccess, 100, 100, 0, apperr.ErrRewardAndPenalty},
		{"negative incentive", models.OutcomeSuccess, -1, 0, 0, apperr.ErrInvalidAmount},
		{"unknown outcome", models.Outcome("MAYBE"), 0, 0, 0, apperr.ErrInvalidOutcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.VendorFinalAmount(10000, tt.outcome, tt.incentive, tt.penalty)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
