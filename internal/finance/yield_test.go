package finance

import (
	"math"
	"testing"

	"energy_finance/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestProjectYield(t *testing.T) {
	e := newTestEngine(t)

	t.Run("first year has no degradation", func(t *testing.T) {
		p := exampleProject()
		assert.InDelta(t, 5.5*0.2*8760*0.75, e.ProjectYield(p, 0), 1e-9)
	})

	t.Run("degrades geometrically", func(t *testing.T) {
		p := exampleProject()
		base := e.ProjectYield(p, 0)
		assert.InDelta(t, base*math.Pow(0.995, 10), e.ProjectYield(p, 10), 1e-9)
	})

	t.Run("non-increasing over the lifetime", func(t *testing.T) {
		p := exampleProject()
		prev := e.ProjectYield(p, 0)
		for year := 1; year < p.ExpectedLifetimeYears; year++ {
			cur := e.ProjectYield(p, year)
			assert.LessOrEqual(t, cur, prev, "year %d", year)
			prev = cur
		}
	})

	t.Run("zero degradation is constant", func(t *testing.T) {
		p := exampleProject()
		p.Solar.DegradationRate = 0
		assert.Equal(t, e.ProjectYield(p, 0), e.ProjectYield(p, 24))
	})

	t.Run("idle asset yields nothing", func(t *testing.T) {
		p := exampleProject()
		p.CapacityMW = 0
		assert.Zero(t, e.ProjectYield(p, 0))
		assert.Zero(t, e.ProjectYield(p, 5))
	})

	t.Run("negative year yields nothing", func(t *testing.T) {
		assert.Zero(t, e.ProjectYield(exampleProject(), -1))
	})

	t.Run("degradation above 100 percent clamps to zero", func(t *testing.T) {
		p := exampleProject()
		p.Solar.DegradationRate = 150
		assert.Greater(t, e.ProjectYield(p, 0), 0.0)
		assert.Zero(t, e.ProjectYield(p, 1))
	})

	t.Run("default performance ratio", func(t *testing.T) {
		p := exampleProject()
		p.Solar.PerformanceRatio = nil
		assert.Equal(t, DefaultConfig().DefaultPerformanceRatio, e.PerformanceRatio(p))
	})

	t.Run("non-solar asset has no degradation", func(t *testing.T) {
		p := domain.ProjectDescription{
			Name:                  "Wind",
			ProjectType:           domain.ProjectTypeWind,
			CapacityMW:            10,
			Capex:                 ptr(12_000_000.0),
			ExpectedLifetimeYears: 20,
		}
		assert.Equal(t, e.ProjectYield(p, 0), e.ProjectYield(p, 19))
		assert.InDelta(t, 10*0.2*8760*0.75, e.ProjectYield(p, 0), 1e-9)
	})
}

func TestDegradationFactor(t *testing.T) {
	assert.Equal(t, 1.0, degradationFactor(0, 5))
	assert.Equal(t, 1.0, degradationFactor(-3, 5))
	assert.Equal(t, 0.0, degradationFactor(100, 1))
	assert.InDelta(t, 0.81, degradationFactor(10, 2), 1e-12)
}
