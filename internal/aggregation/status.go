// Package aggregation holds the classification and roll-up engine of the
// monitoring backend. Everything here is pure: no I/O, no clock reads, no
// shared state.
package aggregation

import "github.com/OskolkovOleg/sklad-monitoring/internal/model"

// Capacity-ratio bands used when no norm is known.
const (
	greenFillRatio  = 0.8
	yellowFillRatio = 0.5
)

// Classify returns the status of a quantity against optional norm levels and
// capacity. It is total: every input maps to exactly one status.
func Classify(quantity float64, minLevel, targetLevel, capacity *float64) model.Status {
	if minLevel == nil && targetLevel == nil {
		if capacity != nil && *capacity > 0 {
			ratio := quantity / *capacity
			switch {
			case ratio >= greenFillRatio:
				return model.StatusGreen
			case ratio >= yellowFillRatio:
				return model.StatusYellow
			case ratio > 0:
				return model.StatusRed
			}
		}
		return model.StatusGray
	}

	if targetLevel != nil && quantity >= *targetLevel {
		return model.StatusGreen
	}
	if minLevel != nil {
		if quantity < *minLevel {
			return model.StatusRed
		}
		if targetLevel != nil {
			return model.StatusYellow
		}
		return model.StatusGreen
	}
	if targetLevel != nil {
		return model.StatusYellow
	}
	return model.StatusGray
}
