package aggregation

import "github.com/shopspring/decimal"

// FillPercentage returns quantity/capacity as a percentage rounded to two
// decimals, or nil when capacity is unknown or not positive. Values above 100
// are returned as is.
func FillPercentage(quantity float64, capacity *float64) *float64 {
	if capacity == nil || *capacity <= 0 {
		return nil
	}
	pct := decimal.NewFromFloat(quantity).
		Div(decimal.NewFromFloat(*capacity)).
		Mul(decimal.NewFromInt(100))
	v := Round2(pct)
	return &v
}

// DeviationFromMin is quantity - min, or 0 when min is unknown.
func DeviationFromMin(quantity float64, minLevel *float64) float64 {
	if minLevel == nil {
		return 0
	}
	return quantity - *minLevel
}

// DeviationFromTarget is quantity - target, or 0 when target is unknown.
func DeviationFromTarget(quantity float64, targetLevel *float64) float64 {
	if targetLevel == nil {
		return 0
	}
	return quantity - *targetLevel
}

// Round2 rounds half away from zero to two decimals.
func Round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
