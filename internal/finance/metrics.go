package finance

import (
	"errors"
	"math"

	"energy_finance/internal/domain"
)

// Compute derives the summary metrics of a schedule.
// A metric without a meaningful value is flagged in its status and does not
// prevent the others from being computed.
func (e *Engine) Compute(schedule []domain.CashFlowRecord, a domain.AssumptionSet) domain.FinancialMetrics {
	metrics := domain.FinancialMetrics{Assumptions: a}

	if len(schedule) == 0 {
		undefined := metricFrom(0, ErrEmptySchedule)
		metrics.NPV = undefined
		metrics.IRR = undefined
		metrics.MIRR = undefined
		metrics.PaybackPeriod = undefined
		metrics.LCOE = undefined
		metrics.ProfitabilityIndex = undefined
		metrics.DebtServiceCoverageRatio = undefined
		return metrics
	}

	flows := NetFlows(schedule)

	npv := NPV(a.DiscountRate, flows)
	metrics.NPV = metricFrom(npv, nil)
	metrics.IRR = metricFrom(IRR(flows, e.cfg.Solver))
	metrics.MIRR = metricFrom(MIRR(flows, a.InterestRate, a.DiscountRate))

	if payback, ok := PaybackPeriod(schedule); ok {
		metrics.PaybackPeriod = metricFrom(payback, nil)
	} else {
		metrics.PaybackPeriod = domain.Metric{
			Status: domain.MetricNever,
			Reason: "cumulative cash flow never turns non-negative",
		}
	}

	metrics.LCOE = metricFrom(LCOE(schedule, a.DiscountRate))
	metrics.ProfitabilityIndex = metricFrom(ProfitabilityIndex(npv, schedule))

	minDSCR, byYear, err := DSCR(schedule)
	metrics.DebtServiceCoverageRatio = metricFrom(minDSCR, err)
	metrics.DSCRByYear = byYear

	return metrics
}

func metricFrom(value float64, err error) domain.Metric {
	switch {
	case err == nil:
		return domain.Metric{Value: value, Status: domain.MetricOK}
	case errors.Is(err, ErrNoConvergence):
		return domain.Metric{Status: domain.MetricNoConvergence, Reason: err.Error()}
	default:
		return domain.Metric{Status: domain.MetricUndefined, Reason: err.Error()}
	}
}

// NetFlows extracts the net cash flow of every year
func NetFlows(schedule []domain.CashFlowRecord) []float64 {
	flows := make([]float64, len(schedule))
	for i, rec := range schedule {
		flows[i] = rec.NetCashFlow
	}
	return flows
}

// NPV discounts flows indexed from year 0.
//
//	NPV = Σ CF_t / (1 + r)^t
func NPV(rate float64, flows []float64) float64 {
	var npv float64
	discount := 1.0
	for t, cf := range flows {
		if t > 0 {
			discount *= 1 + rate
		}
		npv += cf / discount
	}
	return npv
}

// MIRR is the modified internal rate of return.
// Negative flows are discounted to year 0 at the finance rate and positive
// flows compounded to year n at the reinvestment rate.
//
//	MIRR = (FV(positive, reinvest) / |PV(negative, finance)|)^(1/n) − 1
func MIRR(flows []float64, financeRate, reinvestRate float64) (float64, error) {
	n := len(flows) - 1
	if n < 1 {
		return 0, ErrInsufficientFlows
	}

	var pvNegative, fvPositive float64
	for t, cf := range flows {
		switch {
		case cf < 0:
			pvNegative += cf / math.Pow(1+financeRate, float64(t))
		case cf > 0:
			fvPositive += cf * math.Pow(1+reinvestRate, float64(n-t))
		}
	}

	if pvNegative == 0 || fvPositive == 0 {
		return 0, ErrNoSignChange
	}

	return math.Pow(fvPositive/-pvNegative, 1/float64(n)) - 1, nil
}

// PaybackPeriod is the first year in which cumulative cash flow reaches zero,
// interpolated linearly inside that year. ok is false when it never does.
func PaybackPeriod(schedule []domain.CashFlowRecord) (years float64, ok bool) {
	for i, rec := range schedule {
		if rec.CumulativeCashFlow < 0 {
			continue
		}
		if i == 0 {
			return 0, true
		}
		prior := schedule[i-1].CumulativeCashFlow
		if rec.NetCashFlow <= 0 {
			return float64(i), true
		}
		return float64(i-1) + -prior/rec.NetCashFlow, true
	}
	return 0, false
}

// LCOE is the levelized cost of energy in $/MWh.
//
//	LCOE = Σ cost_t / (1 + r)^t  ÷  Σ energy_t / (1 + r)^t
//
// Costs are the magnitudes of capex, opex, maintenance, insurance, taxes and
// debt service.
func LCOE(schedule []domain.CashFlowRecord, discountRate float64) (float64, error) {
	var costs, energy float64
	discount := 1.0
	for t, rec := range schedule {
		if t > 0 {
			discount *= 1 + discountRate
		}
		costs += rec.CostSum() / discount
		energy += rec.EnergyProductionMWh / discount
	}

	if energy == 0 {
		return 0, ErrZeroProduction
	}
	return costs / energy, nil
}

// ProfitabilityIndex relates value created to the year-0 investment.
//
//	PI = (NPV + |capex_0|) / |capex_0|
func ProfitabilityIndex(npv float64, schedule []domain.CashFlowRecord) (float64, error) {
	if len(schedule) == 0 {
		return 0, ErrEmptySchedule
	}
	capex := math.Abs(schedule[0].Capex)
	if capex == 0 {
		return 0, ErrNoCapex
	}
	return (npv + capex) / capex, nil
}

// DSCR is the debt service coverage ratio of every year with debt service.
// Cash flow available for debt service is revenue plus incentives less
// opex, maintenance, insurance and taxes. The minimum over those years is
// the summary value.
func DSCR(schedule []domain.CashFlowRecord) (minimum float64, byYear []domain.YearRatio, err error) {
	minimum = math.Inf(1)
	for _, rec := range schedule {
		if rec.DebtService == 0 {
			continue
		}
		cfads := rec.Revenue + rec.Incentives + rec.Opex + rec.Maintenance + rec.Insurance + rec.Taxes
		ratio := cfads / math.Abs(rec.DebtService)
		byYear = append(byYear, domain.YearRatio{Year: rec.Year, Value: ratio})
		minimum = math.Min(minimum, ratio)
	}

	if len(byYear) == 0 {
		return 0, nil, ErrNoDebt
	}
	return minimum, byYear, nil
}
