package utils

import "github.com/shopspring/decimal"

// MoneyTolerance is the drift accepted between stored and computed balances.
const MoneyTolerance = 0.01

// RoundMoney rounds v half away from zero to two decimal places.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// AddMoney returns a+b rounded to two decimal places.
func AddMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// SubMoney returns a-b rounded to two decimal places.
func SubMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// MulMoney returns v*rate rounded to two decimal places.
func MulMoney(v, rate float64) float64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
}

// SumMoney adds every value exactly and rounds once.
func SumMoney(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// MinorUnits converts an amount to integer minor units (paise, cents).
func MinorUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MoneyEqual reports whether a and b agree within MoneyTolerance.
func MoneyEqual(a, b float64) bool {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs().
		LessThanOrEqual(decimal.NewFromFloat(MoneyTolerance))
}
