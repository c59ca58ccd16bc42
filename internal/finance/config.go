// Package finance is the project-finance engine: energy yield, cash-flow
// schedule and investment metrics for a single generation asset.
//
// Every function is a pure computation over its arguments. An Engine only
// carries its immutable Config, so one Engine may be shared between goroutines.
package finance

import (
	"fmt"
	"math"
)

// SolverConfig bounds the IRR root search
type SolverConfig struct {
	Low           float64 // lowest rate tried, must be > -1
	High          float64 // highest rate tried
	Tolerance     float64 // bracket half-width at which the root is accepted
	MaxIterations int     // bisection budget
	ScanSteps     int     // grid points used to locate a sign change
}

// Config holds the engine constants
type Config struct {
	CapacityFactor float64
	HoursPerYear   float64

	// DefaultPerformanceRatio is applied when a project does not state one.
	// 0.75 is a typical utility-scale figure, not a property of every site;
	// callers should supply the real ratio.
	DefaultPerformanceRatio float64

	// ConsistencyTolerance is the relative tolerance between total and per-MW
	// cost inputs; CapacityTolerance the one between capacity_mw and the panel count.
	ConsistencyTolerance float64
	CapacityTolerance    float64

	// MinRate is the lower bound for every rate field
	MinRate float64

	Solver SolverConfig
}

// DefaultConfig returns the standard engine constants
func DefaultConfig() Config {
	return Config{
		CapacityFactor:          0.20,
		HoursPerYear:            8760,
		DefaultPerformanceRatio: 0.75,
		ConsistencyTolerance:    0.01,
		CapacityTolerance:       0.05,
		MinRate:                 -1,
		Solver: SolverConfig{
			Low:           -0.99,
			High:          10,
			Tolerance:     1e-7,
			MaxIterations: 1000,
			ScanSteps:     200,
		},
	}
}

// Validate checks the engine constants
func (c Config) Validate() error {
	if !(c.CapacityFactor > 0 && c.CapacityFactor <= 1) {
		return fmt.Errorf("invalid capacity factor: %v (must be in (0,1])", c.CapacityFactor)
	}
	if !(c.HoursPerYear > 0 && c.HoursPerYear <= 8784) {
		return fmt.Errorf("invalid hours per year: %v (must be in (0,8784])", c.HoursPerYear)
	}
	if !(c.DefaultPerformanceRatio > 0 && c.DefaultPerformanceRatio <= 1) {
		return fmt.Errorf("invalid default performance ratio: %v (must be in (0,1])", c.DefaultPerformanceRatio)
	}
	if c.ConsistencyTolerance < 0 || c.CapacityTolerance < 0 {
		return fmt.Errorf("tolerances must be non-negative")
	}
	if math.IsNaN(c.MinRate) || c.MinRate < -1 {
		return fmt.Errorf("invalid minimum rate: %v (must be >= -1)", c.MinRate)
	}
	return c.Solver.Validate()
}

// Validate checks the solver bracket and budget
func (s SolverConfig) Validate() error {
	if s.Low <= -1 {
		return fmt.Errorf("invalid IRR lower bound: %v (must be > -1)", s.Low)
	}
	if s.High <= s.Low {
		return fmt.Errorf("invalid IRR bracket: [%v, %v]", s.Low, s.High)
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("invalid IRR tolerance: %v", s.Tolerance)
	}
	if s.MaxIterations < 1 {
		return fmt.Errorf("invalid IRR iteration budget: %d", s.MaxIterations)
	}
	if s.ScanSteps < 1 {
		return fmt.Errorf("invalid IRR scan steps: %d", s.ScanSteps)
	}
	return nil
}
