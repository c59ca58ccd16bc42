package finance

import (
	"errors"
	"math"
	"testing"

	"energy_finance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fields returns the rejected field names of a validation error
func fields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	names := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		names = append(names, fe.Field)
	}
	return names
}

func TestValidateProject(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.ValidateProject(exampleProject()))

	tests := []struct {
		name   string
		mutate func(p *domain.ProjectDescription)
		field  string
	}{
		{"missing name", func(p *domain.ProjectDescription) { p.Name = "" }, "name"},
		{"unknown project type", func(p *domain.ProjectDescription) { p.ProjectType = "nuclear"; p.Solar = nil }, "project_type"},
		{"unknown status", func(p *domain.ProjectDescription) { p.Status = "paused" }, "status"},
		{"negative capacity", func(p *domain.ProjectDescription) { p.CapacityMW = -1 }, "capacity_mw"},
		{"zero lifetime", func(p *domain.ProjectDescription) { p.ExpectedLifetimeYears = 0 }, "expected_lifetime_years"},
		{"lifetime too long", func(p *domain.ProjectDescription) { p.ExpectedLifetimeYears = 101 }, "expected_lifetime_years"},
		{"no capex", func(p *domain.ProjectDescription) { p.Capex = nil; p.CapexPerMW = nil }, "capex"},
		{"negative capex", func(p *domain.ProjectDescription) { p.Capex = ptr(-1.0); p.CapexPerMW = nil }, "capex"},
		{"inconsistent capex", func(p *domain.ProjectDescription) { p.Capex = ptr(7_000_000.0) }, "capex"},
		{"inconsistent opex", func(p *domain.ProjectDescription) { p.OpexPerMW = ptr(20_000.0) }, "opex_per_year"},
		{"panels do not match capacity", func(p *domain.ProjectDescription) { p.Solar.NumPanels = ptr(20000) }, "capacity_mw"},
		{"solar type without extension", func(p *domain.ProjectDescription) { p.Solar = nil }, "solar"},
		{"extension on wind project", func(p *domain.ProjectDescription) { p.ProjectType = domain.ProjectTypeWind }, "solar"},
		{"performance ratio above one", func(p *domain.ProjectDescription) { p.Solar.PerformanceRatio = ptr(1.2) }, "solar.performance_ratio"},
		{"negative degradation", func(p *domain.ProjectDescription) { p.Solar.DegradationRate = -1 }, "solar.degradation_rate"},
		{"latitude out of range", func(p *domain.ProjectDescription) { p.Solar.Latitude = ptr(95.0) }, "solar.latitude"},
		{"operation before start", func(p *domain.ProjectDescription) {
			start, _ := domain.ParseDate("2025-06-01")
			cod, _ := domain.ParseDate("2025-01-01")
			p.StartDate, p.CommercialOperationDate = &start, &cod
		}, "commercial_operation_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := exampleProject()
			tt.mutate(&p)
			assert.Contains(t, fields(t, e.ValidateProject(p)), tt.field)
		})
	}
}

func TestValidateProjectTolerances(t *testing.T) {
	e := newTestEngine(t)

	p := exampleProject()
	p.Capex = ptr(5_540_000.0)
	assert.NoError(t, e.ValidateProject(p), "capex within one percent of capex_per_mw x capacity")

	p = exampleProject()
	p.Solar.NumPanels = ptr(14000)
	assert.NoError(t, e.ValidateProject(p), "panel capacity within five percent of capacity")

	p = exampleProject()
	p.Capex = nil
	assert.NoError(t, e.ValidateProject(p), "capex_per_mw alone is enough")
	assert.Equal(t, 5_500_000.0, ResolveCapex(p))
}

func TestValidateAssumptions(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.ValidateAssumptions(exampleAssumptions(), 25))

	tests := []struct {
		name   string
		mutate func(a *domain.AssumptionSet)
		field  string
	}{
		{"debt ratio above one", func(a *domain.AssumptionSet) { a.DebtRatio = 1.1 }, "debt_ratio"},
		{"negative debt ratio", func(a *domain.AssumptionSet) { a.DebtRatio = -0.1 }, "debt_ratio"},
		{"discount rate of minus one", func(a *domain.AssumptionSet) { a.DiscountRate = -1 }, "discount_rate"},
		{"discount rate not finite", func(a *domain.AssumptionSet) { a.DiscountRate = math.NaN() }, "discount_rate"},
		{"inflation below minimum", func(a *domain.AssumptionSet) { a.InflationRate = -2 }, "inflation_rate"},
		{"interest rate infinite", func(a *domain.AssumptionSet) { a.InterestRate = math.Inf(1) }, "interest_rate"},
		{"interest rate of minus one", func(a *domain.AssumptionSet) { a.InterestRate = -1 }, "interest_rate"},
		{"negative ppa price", func(a *domain.AssumptionSet) { a.PPA.Price = -5 }, "ppa.price"},
		{"ppa longer than lifetime", func(a *domain.AssumptionSet) { a.PPA.TermYears = 30 }, "ppa.term_years"},
		{"merchant escalation not finite", func(a *domain.AssumptionSet) {
			a.Merchant = &domain.MerchantTerms{Price: 40, Escalation: math.NaN()}
		}, "merchant.escalation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := exampleAssumptions()
			tt.mutate(&a)
			assert.Contains(t, fields(t, e.ValidateAssumptions(a, 25)), tt.field)
		})
	}
}

func TestValidateFinancials(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.ValidateFinancials(domain.Financials{}, 25, 5_500_000))

	tests := []struct {
		name  string
		f     domain.Financials
		field string
	}{
		{"tax rate above one", domain.Financials{TaxRate: 1.5}, "tax_rate"},
		{"negative maintenance", domain.Financials{MaintenancePerYear: -1}, "maintenance_per_year"},
		{"debt term beyond lifetime", domain.Financials{DebtTermYears: 30}, "debt_term_years"},
		{"depreciation beyond lifetime", domain.Financials{DepreciationYears: 26}, "depreciation_years"},
		{"incentive beyond lifetime", domain.Financials{ProductionIncentiveYears: 40}, "production_incentive_years"},
		{"capex schedule sum mismatch", domain.Financials{CapexSchedule: []float64{1_000_000}}, "capex_schedule"},
		{"capex schedule too long", domain.Financials{CapexSchedule: make([]float64, 30)}, "capex_schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, fields(t, e.ValidateFinancials(tt.f, 25, 5_500_000)), tt.field)
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	e := newTestEngine(t)

	p := exampleProject()
	p.Name = ""
	a := exampleAssumptions()
	a.DebtRatio = 2
	f := domain.Financials{TaxRate: -0.1}

	err := e.Validate(p, f, a)
	names := fields(t, err)
	assert.Contains(t, names, "name")
	assert.Contains(t, names, "debt_ratio")
	assert.Contains(t, names, "tax_rate")
	assert.Contains(t, err.Error(), "validation failed")
}
