package finance

import (
	"math"

	"energy_finance/internal/domain"
)

// ProjectYield estimates the energy output in MWh for an operating year.
// Year 0 is the first operating year and carries no degradation.
//
//	E(y) = capacity_mw × capacity_factor × hours_per_year × PR × (1 − d/100)^y
//
// An idle asset (capacity 0) yields 0. The degradation factor is floored at 0
// so the result is never negative.
func (e *Engine) ProjectYield(p domain.ProjectDescription, year int) float64 {
	if p.CapacityMW <= 0 || year < 0 {
		return 0
	}

	energy := p.CapacityMW * e.cfg.CapacityFactor * e.cfg.HoursPerYear
	energy *= e.PerformanceRatio(p)

	if year > 0 && p.Solar != nil {
		energy *= degradationFactor(p.Solar.DegradationRate, year)
	}

	return math.Max(0, energy)
}

// PerformanceRatio returns the project's ratio or the configured default
func (e *Engine) PerformanceRatio(p domain.ProjectDescription) float64 {
	if p.Solar != nil && p.Solar.PerformanceRatio != nil {
		return *p.Solar.PerformanceRatio
	}
	return e.cfg.DefaultPerformanceRatio
}

// degradationFactor is (1 − rate/100)^year clamped to [0, 1]
func degradationFactor(ratePercent float64, year int) float64 {
	base := 1 - ratePercent/100
	switch {
	case base <= 0:
		return 0
	case base >= 1:
		return 1
	}
	return math.Pow(base, float64(year))
}
