package finance

import (
	"math"

	"energy_finance/internal/domain"
)

// BuildSchedule projects the cash flows of years 0..lifetime.
//
// Year 0 carries the capital outlay (or the first entry of the capex
// schedule) and any upfront grant. Operating years earn energy × price and pay
// inflated running costs, level debt service and taxes. Salvage value lands in
// the terminal year. Inputs are validated first and nothing is computed when
// they are rejected.
func (e *Engine) BuildSchedule(project domain.ProjectDescription, financials domain.Financials, assumptions domain.AssumptionSet) ([]domain.CashFlowRecord, error) {
	if err := e.Validate(project, financials, assumptions); err != nil {
		return nil, err
	}
	return e.projectCashFlows(project, financials, assumptions), nil
}

func (e *Engine) projectCashFlows(p domain.ProjectDescription, f domain.Financials, a domain.AssumptionSet) []domain.CashFlowRecord {
	lifetime := p.ExpectedLifetimeYears
	capex := ResolveCapex(p)
	opexBase := ResolveOpex(p)

	capexByYear := make([]float64, lifetime+1)
	if len(f.CapexSchedule) > 0 {
		copy(capexByYear, f.CapexSchedule)
	} else {
		capexByYear[0] = capex
	}

	debtTerm := f.DebtTermYears
	if debtTerm == 0 {
		debtTerm = lifetime
	}
	debt := newLoan(capex*a.DebtRatio, a.InterestRate, debtTerm)

	depreciationYears := f.DepreciationYears
	if depreciationYears == 0 {
		depreciationYears = lifetime
	}
	annualDepreciation := capex / float64(depreciationYears)

	schedule := make([]domain.CashFlowRecord, 0, lifetime+1)
	cumulative := 0.0

	for year := 0; year <= lifetime; year++ {
		rec := domain.CashFlowRecord{
			Year:  year,
			Capex: outflow(capexByYear[year]),
		}

		if year == 0 {
			rec.Incentives = f.UpfrontGrant
		} else {
			energy := e.ProjectYield(p, year-1)
			rec.EnergyProductionMWh = energy
			rec.Revenue = energy * EffectivePrice(a, year, lifetime)

			escalator := math.Pow(1+a.InflationRate, float64(year-1))
			rec.Opex = outflow(opexBase * escalator)
			rec.Maintenance = outflow(f.MaintenancePerYear * escalator)
			rec.Insurance = outflow(f.InsurancePerYear * escalator)

			payment, interest := debt.next()
			rec.DebtService = outflow(payment)

			if year == 1 {
				rec.Incentives += f.InvestmentTaxCredit * capex
			}
			if year <= f.ProductionIncentiveYears {
				rec.Incentives += f.ProductionIncentivePerMWh * energy
			}

			if f.TaxRate > 0 {
				depreciation := 0.0
				if year <= depreciationYears {
					depreciation = annualDepreciation
				}
				taxable := rec.Revenue + rec.Opex + rec.Maintenance + rec.Insurance - interest - depreciation
				if taxable > 0 {
					rec.Taxes = outflow(f.TaxRate * taxable)
				}
			}

			if year == lifetime {
				rec.SalvageValue = f.SalvageValue
			}
		}

		rec.NetCashFlow = rec.FlowSum()
		cumulative += rec.NetCashFlow
		rec.CumulativeCashFlow = cumulative

		schedule = append(schedule, rec)
	}

	return schedule
}

// EffectivePrice is the $/MWh earned in an operating year.
// The PPA price escalates from year 1 while the PPA runs (term 0 covers the
// whole lifetime). Afterwards, or without a PPA, the merchant price applies
// if one is given; otherwise the energy earns nothing.
func EffectivePrice(a domain.AssumptionSet, year, lifetime int) float64 {
	if year < 1 {
		return 0
	}
	if a.PPA != nil {
		term := a.PPA.TermYears
		if term == 0 {
			term = lifetime
		}
		if year <= term {
			return a.PPA.Price * math.Pow(1+a.PPA.Escalation, float64(year-1))
		}
	}
	if a.Merchant != nil {
		return a.Merchant.Price * math.Pow(1+a.Merchant.Escalation, float64(year-1))
	}
	return 0
}

// outflow stores a cost magnitude as a negative flow without producing -0
func outflow(amount float64) float64 {
	if amount == 0 {
		return 0
	}
	return -amount
}
