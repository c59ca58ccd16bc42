package finance

import (
	"math"
	"testing"

	"energy_finance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSchedule(t *testing.T, e *Engine, p domain.ProjectDescription, f domain.Financials, a domain.AssumptionSet) []domain.CashFlowRecord {
	t.Helper()
	schedule, err := e.BuildSchedule(p, f, a)
	require.NoError(t, err)
	require.Len(t, schedule, p.ExpectedLifetimeYears+1)
	return schedule
}

func TestBuildScheduleInvariants(t *testing.T) {
	e := newTestEngine(t)
	a := exampleAssumptions()
	a.DebtRatio = 0.6
	a.InflationRate = 0.025
	f := domain.Financials{
		MaintenancePerYear: 20_000,
		InsurancePerYear:   10_000,
		TaxRate:            0.21,
		SalvageValue:       250_000,
		UpfrontGrant:       100_000,
	}

	schedule := buildSchedule(t, e, exampleProject(), f, a)

	cumulative := 0.0
	for i, rec := range schedule {
		assert.Equal(t, i, rec.Year)
		assert.InDelta(t, rec.FlowSum(), rec.NetCashFlow, 1e-6, "year %d net", i)
		cumulative += rec.NetCashFlow
		assert.InDelta(t, cumulative, rec.CumulativeCashFlow, 1e-6, "year %d cumulative", i)

		assert.LessOrEqual(t, rec.Capex, 0.0)
		assert.LessOrEqual(t, rec.Opex, 0.0)
		assert.LessOrEqual(t, rec.Maintenance, 0.0)
		assert.LessOrEqual(t, rec.Insurance, 0.0)
		assert.LessOrEqual(t, rec.Taxes, 0.0)
		assert.LessOrEqual(t, rec.DebtService, 0.0)
		assert.GreaterOrEqual(t, rec.Revenue, 0.0)
		assert.GreaterOrEqual(t, rec.Incentives, 0.0)
		assert.GreaterOrEqual(t, rec.SalvageValue, 0.0)
		assert.GreaterOrEqual(t, rec.EnergyProductionMWh, 0.0)
	}

	assert.Zero(t, schedule[0].EnergyProductionMWh)
	assert.Equal(t, 100_000.0, schedule[0].Incentives)
	assert.Equal(t, 250_000.0, schedule[25].SalvageValue)
	assert.Zero(t, schedule[24].SalvageValue)
}

func TestBuildScheduleInflation(t *testing.T) {
	e := newTestEngine(t)
	a := exampleAssumptions()
	a.InflationRate = 0.025
	f := domain.Financials{MaintenancePerYear: 20_000}

	schedule := buildSchedule(t, e, exampleProject(), f, a)

	assert.Equal(t, -75_000.0, schedule[1].Opex)
	assert.InDelta(t, -75_000*math.Pow(1.025, 2), schedule[3].Opex, 1e-6)
	assert.InDelta(t, -20_000*math.Pow(1.025, 2), schedule[3].Maintenance, 1e-6)
}

func TestBuildScheduleDebt(t *testing.T) {
	e := newTestEngine(t)
	a := exampleAssumptions()
	a.DebtRatio = 0.7
	a.InterestRate = 0.05

	t.Run("level payments over the lifetime", func(t *testing.T) {
		schedule := buildSchedule(t, e, exampleProject(), domain.Financials{}, a)
		payment := LevelPayment(5_500_000*0.7, 0.05, 25)
		for year := 1; year < 25; year++ {
			assert.InDelta(t, -payment, schedule[year].DebtService, 1e-6, "year %d", year)
		}
		assert.InDelta(t, -payment, schedule[25].DebtService, 1e-3)
		assert.Zero(t, schedule[0].DebtService)
	})

	t.Run("no payments after the term", func(t *testing.T) {
		schedule := buildSchedule(t, e, exampleProject(), domain.Financials{DebtTermYears: 10}, a)
		payment := LevelPayment(5_500_000*0.7, 0.05, 10)
		assert.InDelta(t, -payment, schedule[10].DebtService, 1e-3)
		for year := 11; year <= 25; year++ {
			assert.Zero(t, schedule[year].DebtService, "year %d", year)
		}
	})

	t.Run("principal repaid in full", func(t *testing.T) {
		l := newLoan(1_000_000, 0.06, 15)
		var principal float64
		for year := 1; year <= 20; year++ {
			payment, interest := l.next()
			principal += payment - interest
		}
		assert.InDelta(t, 1_000_000, principal, 1e-6)
	})

	t.Run("zero debt ratio has no debt service", func(t *testing.T) {
		schedule := buildSchedule(t, e, exampleProject(), domain.Financials{}, exampleAssumptions())
		for _, rec := range schedule {
			assert.Zero(t, rec.DebtService)
		}
	})
}

func TestLevelPayment(t *testing.T) {
	assert.InDelta(t, 100.0, LevelPayment(1000, 0, 10), 1e-12)
	assert.Zero(t, LevelPayment(1000, 0.05, 0))
	assert.Zero(t, LevelPayment(0, 0.05, 10))
	// 1000 at 10% over 2 years
	assert.InDelta(t, 576.190476, LevelPayment(1000, 0.10, 2), 1e-6)
}

func TestEffectivePrice(t *testing.T) {
	a := domain.AssumptionSet{
		PPA:      &domain.PPATerms{Price: 60, Escalation: 0.02, TermYears: 10},
		Merchant: &domain.MerchantTerms{Price: 40, Escalation: 0.01},
	}

	assert.Zero(t, EffectivePrice(a, 0, 25))
	assert.Equal(t, 60.0, EffectivePrice(a, 1, 25))
	assert.InDelta(t, 60*math.Pow(1.02, 9), EffectivePrice(a, 10, 25), 1e-9)
	assert.InDelta(t, 40*math.Pow(1.01, 10), EffectivePrice(a, 11, 25), 1e-9)

	t.Run("no merchant after the term earns nothing", func(t *testing.T) {
		ppaOnly := domain.AssumptionSet{PPA: &domain.PPATerms{Price: 60, TermYears: 10}}
		assert.Equal(t, 60.0, EffectivePrice(ppaOnly, 10, 25))
		assert.Zero(t, EffectivePrice(ppaOnly, 11, 25))
	})

	t.Run("zero term covers the lifetime", func(t *testing.T) {
		whole := domain.AssumptionSet{PPA: &domain.PPATerms{Price: 55}}
		assert.Equal(t, 55.0, EffectivePrice(whole, 25, 25))
	})

	t.Run("merchant only", func(t *testing.T) {
		merchant := domain.AssumptionSet{Merchant: &domain.MerchantTerms{Price: 45}}
		assert.Equal(t, 45.0, EffectivePrice(merchant, 3, 25))
	})
}

func TestBuildScheduleRevenueFollowsContract(t *testing.T) {
	e := newTestEngine(t)
	a := exampleAssumptions()
	a.PPA = &domain.PPATerms{Price: 50, TermYears: 10}
	a.Merchant = &domain.MerchantTerms{Price: 30}

	schedule := buildSchedule(t, e, exampleProject(), domain.Financials{}, a)

	assert.InDelta(t, schedule[10].EnergyProductionMWh*50, schedule[10].Revenue, 1e-6)
	assert.InDelta(t, schedule[11].EnergyProductionMWh*30, schedule[11].Revenue, 1e-6)
}

func TestBuildScheduleIncentives(t *testing.T) {
	e := newTestEngine(t)
	f := domain.Financials{
		InvestmentTaxCredit:       0.3,
		ProductionIncentivePerMWh: 10,
		ProductionIncentiveYears:  5,
	}

	schedule := buildSchedule(t, e, exampleProject(), f, exampleAssumptions())

	assert.InDelta(t, 0.3*5_500_000+10*7227, schedule[1].Incentives, 1e-6)
	assert.InDelta(t, 10*schedule[5].EnergyProductionMWh, schedule[5].Incentives, 1e-6)
	assert.Zero(t, schedule[6].Incentives)
}

func TestBuildScheduleTaxes(t *testing.T) {
	e := newTestEngine(t)
	f := domain.Financials{TaxRate: 0.25, DepreciationYears: 25}

	schedule := buildSchedule(t, e, exampleProject(), f, exampleAssumptions())

	// 361,350 revenue - 75,000 opex - 220,000 depreciation
	assert.InDelta(t, -0.25*66_350, schedule[1].Taxes, 1e-6)
	assert.Zero(t, schedule[0].Taxes)

	t.Run("losses are not taxed", func(t *testing.T) {
		f := domain.Financials{TaxRate: 0.25, DepreciationYears: 5}
		schedule := buildSchedule(t, e, exampleProject(), f, exampleAssumptions())
		assert.Zero(t, schedule[1].Taxes)
		assert.Less(t, schedule[6].Taxes, 0.0)
	})
}

func TestBuildScheduleCapexSchedule(t *testing.T) {
	e := newTestEngine(t)
	f := domain.Financials{CapexSchedule: []float64{3_000_000, 2_500_000}}

	schedule := buildSchedule(t, e, exampleProject(), f, exampleAssumptions())

	assert.Equal(t, -3_000_000.0, schedule[0].Capex)
	assert.Equal(t, -2_500_000.0, schedule[1].Capex)
	assert.Zero(t, schedule[2].Capex)
	assert.Greater(t, schedule[1].Revenue, 0.0)
}

func TestBuildScheduleIdleAsset(t *testing.T) {
	e := newTestEngine(t)
	p := exampleProject()
	p.CapacityMW = 0
	p.CapexPerMW = nil
	p.Solar.NumPanels = nil

	schedule := buildSchedule(t, e, p, domain.Financials{}, exampleAssumptions())
	for _, rec := range schedule[1:] {
		assert.Zero(t, rec.EnergyProductionMWh)
		assert.Zero(t, rec.Revenue)
	}
}

func TestBuildScheduleRejectsInvalidInput(t *testing.T) {
	e := newTestEngine(t)
	a := exampleAssumptions()
	a.DebtRatio = 1.5

	schedule, err := e.BuildSchedule(exampleProject(), domain.Financials{}, a)
	assert.Nil(t, schedule)
	assert.ErrorIs(t, err, ErrValidation)
}
