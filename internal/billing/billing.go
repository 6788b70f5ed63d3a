// Package billing turns parking timestamps into billed amounts.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var microsPerHour = decimal.NewFromInt(int64(time.Hour / time.Microsecond))

// hours is the elapsed time in fractional hours, exact to the microsecond.
func hours(parking, leaving time.Time) decimal.Decimal {
	return decimal.NewFromInt(leaving.Sub(parking).Microseconds()).Div(microsPerHour)
}

// Hours is the elapsed time between parking and leaving in fractional hours.
// It is negative when leaving precedes parking.
func Hours(parking, leaving time.Time) float64 {
	return hours(parking, leaving).InexactFloat64()
}

// ComputeCost bills hourlyPrice per elapsed hour, prorated to the second.
// The result is never negative and is rounded half-up to cents.
func ComputeCost(parking, leaving time.Time, hourlyPrice float64) float64 {
	cost := hours(parking, leaving).Mul(decimal.NewFromFloat(hourlyPrice))
	if cost.IsNegative() {
		return 0
	}
	return cost.Round(2).InexactFloat64()
}

// DurationHours is Hours clamped at zero and rounded to 2 decimals, as shown
// on receipts and exports.
func DurationHours(parking, leaving time.Time) float64 {
	h := hours(parking, leaving)
	if h.IsNegative() {
		return 0
	}
	return h.Round(2).InexactFloat64()
}

// Round2 rounds half-up to two decimals. v is read as its shortest decimal
// form, so 1.005 becomes 1.01.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
