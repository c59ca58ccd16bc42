package finance

import (
	"math"
	"testing"

	"energy_finance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scheduleOf builds records with the given net flows and running totals
func scheduleOf(flows ...float64) []domain.CashFlowRecord {
	schedule := make([]domain.CashFlowRecord, len(flows))
	cumulative := 0.0
	for i, cf := range flows {
		cumulative += cf
		schedule[i] = domain.CashFlowRecord{Year: i, NetCashFlow: cf, CumulativeCashFlow: cumulative}
	}
	return schedule
}

func TestNPV(t *testing.T) {
	flows := []float64{-1000, 300, 400, 500}

	assert.InDelta(t, 200.0, NPV(0, flows), 1e-9)
	assert.InDelta(t, -1000+300/1.1+400/1.21+500/1.331, NPV(0.1, flows), 1e-9)
	assert.Zero(t, NPV(0.1, nil))
	assert.Greater(t, NPV(0.05, flows), NPV(0.1, flows))
}

func TestMIRR(t *testing.T) {
	got, err := MIRR([]float64{-1000, 0, 1210}, 0.05, 0.08)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got, 1e-9)

	// finance rate discounts the later outflow, reinvest rate compounds the inflow
	got, err = MIRR([]float64{-1000, 500, -100, 800}, 0.10, 0.12)
	require.NoError(t, err)
	pv := 1000 + 100/1.21
	fv := 500*1.12*1.12 + 800
	assert.InDelta(t, math.Pow(fv/pv, 1.0/3)-1, got, 1e-9)

	_, err = MIRR([]float64{100, 200}, 0.1, 0.1)
	assert.ErrorIs(t, err, ErrUndefinedMetric)

	_, err = MIRR([]float64{-100}, 0.1, 0.1)
	assert.ErrorIs(t, err, ErrInsufficientFlows)
}

func TestPaybackPeriod(t *testing.T) {
	t.Run("interpolates inside the crossing year", func(t *testing.T) {
		years, ok := PaybackPeriod(scheduleOf(-100, 60, 60))
		require.True(t, ok)
		assert.InDelta(t, 1+40.0/60, years, 1e-12)
	})

	t.Run("exact crossing", func(t *testing.T) {
		years, ok := PaybackPeriod(scheduleOf(-100, 50, 50, 50))
		require.True(t, ok)
		assert.InDelta(t, 2.0, years, 1e-12)
	})

	t.Run("never pays back", func(t *testing.T) {
		_, ok := PaybackPeriod(scheduleOf(-100, 10, 10))
		assert.False(t, ok)
	})

	t.Run("no investment", func(t *testing.T) {
		years, ok := PaybackPeriod(scheduleOf(0, 10))
		require.True(t, ok)
		assert.Zero(t, years)
	})
}

func TestLCOE(t *testing.T) {
	schedule := []domain.CashFlowRecord{
		{Year: 0, Capex: -1000},
		{Year: 1, Opex: -100, EnergyProductionMWh: 100, Revenue: 5000},
	}

	got, err := LCOE(schedule, 0)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, got, 1e-12)

	got, err = LCOE(schedule, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, (1000+100/1.1)/(100/1.1), got, 1e-9)

	_, err = LCOE([]domain.CashFlowRecord{{Capex: -1000}, {Opex: -10}}, 0.1)
	assert.ErrorIs(t, err, ErrZeroProduction)
}

func TestProfitabilityIndex(t *testing.T) {
	schedule := []domain.CashFlowRecord{{Capex: -1000}}

	got, err := ProfitabilityIndex(100, schedule)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, got, 1e-12)

	_, err = ProfitabilityIndex(100, []domain.CashFlowRecord{{}})
	assert.ErrorIs(t, err, ErrNoCapex)

	_, err = ProfitabilityIndex(100, nil)
	assert.ErrorIs(t, err, ErrEmptySchedule)
}

func TestDSCR(t *testing.T) {
	schedule := []domain.CashFlowRecord{
		{Year: 0, Capex: -1000},
		{Year: 1, Revenue: 200, Opex: -50, DebtService: -100},
		{Year: 2, Revenue: 180, Opex: -50, DebtService: -100},
		{Year: 3, Revenue: 180, Opex: -50},
	}

	minimum, byYear, err := DSCR(schedule)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, minimum, 1e-12)
	require.Len(t, byYear, 2)
	assert.Equal(t, 1, byYear[0].Year)
	assert.InDelta(t, 1.5, byYear[0].Value, 1e-12)

	_, _, err = DSCR(schedule[3:])
	assert.ErrorIs(t, err, ErrNoDebt)
}

func TestCompute(t *testing.T) {
	e := newTestEngine(t)

	t.Run("empty schedule", func(t *testing.T) {
		m := e.Compute(nil, exampleAssumptions())
		for _, metric := range []domain.Metric{m.NPV, m.IRR, m.MIRR, m.PaybackPeriod, m.LCOE, m.ProfitabilityIndex, m.DebtServiceCoverageRatio} {
			assert.Equal(t, domain.MetricUndefined, metric.Status)
			assert.NotEmpty(t, metric.Reason)
		}
	})

	t.Run("never paying project", func(t *testing.T) {
		m := e.Compute(scheduleOf(-1000, 10, 10), exampleAssumptions())
		assert.True(t, m.NPV.Valid())
		assert.Equal(t, domain.MetricNever, m.PaybackPeriod.Status)
		assert.Equal(t, domain.MetricOK, m.IRR.Status)
		assert.Equal(t, domain.MetricUndefined, m.LCOE.Status)
	})

	t.Run("no sign change leaves IRR undefined", func(t *testing.T) {
		m := e.Compute(scheduleOf(-1000, -10), exampleAssumptions())
		assert.Equal(t, domain.MetricUndefined, m.IRR.Status)
		assert.Equal(t, domain.MetricNever, m.PaybackPeriod.Status)
	})

	t.Run("solver budget exhausted", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Solver.MaxIterations = 1
		cfg.Solver.Tolerance = 1e-12
		limited, err := NewEngine(cfg)
		require.NoError(t, err)

		m := limited.Compute(scheduleOf(-100, 110), exampleAssumptions())
		assert.Equal(t, domain.MetricNoConvergence, m.IRR.Status)
		assert.True(t, m.NPV.Valid())
	})

	t.Run("debt financed project", func(t *testing.T) {
		a := exampleAssumptions()
		a.DebtRatio = 0.5
		result, err := e.Evaluate(exampleProject(), domain.Financials{}, a)
		require.NoError(t, err)
		require.True(t, result.Metrics.DebtServiceCoverageRatio.Valid())
		assert.Len(t, result.Metrics.DSCRByYear, 25)
	})
}
