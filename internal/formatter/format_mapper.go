// internal/formatter/format_mapper.go
// Maps engine results to the response format without mutating them.
package formatter

import (
	"math"
	"time"

	"energy_finance/internal/domain"

	"github.com/shopspring/decimal"
)

// Rounding places per quantity
const (
	moneyPlaces  = 2
	energyPlaces = 3
	ratePlaces   = 6
	yearPlaces   = 2
	ratioPlaces  = 4
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Metric is a single figure; Value is null unless Status is ok
type Metric struct {
	Value  *decimal.Decimal    `json:"value"`
	Status domain.MetricStatus `json:"status"`
	Reason string              `json:"reason,omitempty"`
}

// YearRatio is one DSCR year
type YearRatio struct {
	Year  int             `json:"year"`
	Value decimal.Decimal `json:"value"`
}

// Metrics is the response form of domain.FinancialMetrics
type Metrics struct {
	NPV                      Metric               `json:"npv"`
	IRR                      Metric               `json:"irr"`
	MIRR                     Metric               `json:"mirr"`
	PaybackPeriod            Metric               `json:"payback_period"`
	LCOE                     Metric               `json:"lcoe"`
	ProfitabilityIndex       Metric               `json:"profitability_index"`
	DebtServiceCoverageRatio Metric               `json:"debt_service_coverage_ratio"`
	DSCRByYear               []YearRatio          `json:"dscr_by_year,omitempty"`
	Assumptions              domain.AssumptionSet `json:"assumptions"`
}

// CashFlow is one schedule year with money rounded to cents
type CashFlow struct {
	Year                int             `json:"year"`
	Capex               decimal.Decimal `json:"capex"`
	Revenue             decimal.Decimal `json:"revenue"`
	Opex                decimal.Decimal `json:"opex"`
	Maintenance         decimal.Decimal `json:"maintenance"`
	Insurance           decimal.Decimal `json:"insurance"`
	Taxes               decimal.Decimal `json:"taxes"`
	DebtService         decimal.Decimal `json:"debt_service"`
	Incentives          decimal.Decimal `json:"incentives"`
	SalvageValue        decimal.Decimal `json:"salvage_value"`
	EnergyProductionMWh decimal.Decimal `json:"energy_production_mwh"`
	NetCashFlow         decimal.Decimal `json:"net_cash_flow"`
	CumulativeCashFlow  decimal.Decimal `json:"cumulative_cash_flow"`
}

// Evaluation is the response of a stateless calculation
type Evaluation struct {
	Metrics  Metrics    `json:"metrics"`
	Schedule []CashFlow `json:"schedule"`
}

// Analysis is the response form of a stored result
type Analysis struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
	CalculatedAt time.Time         `json:"calculated_at"`
	Financials   domain.Financials `json:"financials"`
	Metrics      Metrics           `json:"metrics"`
	Schedule     []CashFlow        `json:"schedule,omitempty"`
}

// FormatMetrics rounds every valid metric to its display precision
func FormatMetrics(m domain.FinancialMetrics) Metrics {
	out := Metrics{
		NPV:                      formatMetric(m.NPV, moneyPlaces),
		IRR:                      formatMetric(m.IRR, ratePlaces),
		MIRR:                     formatMetric(m.MIRR, ratePlaces),
		PaybackPeriod:            formatMetric(m.PaybackPeriod, yearPlaces),
		LCOE:                     formatMetric(m.LCOE, moneyPlaces),
		ProfitabilityIndex:       formatMetric(m.ProfitabilityIndex, ratioPlaces),
		DebtServiceCoverageRatio: formatMetric(m.DebtServiceCoverageRatio, ratioPlaces),
		Assumptions:              m.Assumptions,
	}

	for _, yr := range m.DSCRByYear {
		out.DSCRByYear = append(out.DSCRByYear, YearRatio{Year: yr.Year, Value: round(yr.Value, ratioPlaces)})
	}
	return out
}

func formatMetric(m domain.Metric, places int32) Metric {
	out := Metric{Status: m.Status, Reason: m.Reason}
	if m.Valid() && !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0) {
		v := round(m.Value, places)
		out.Value = &v
	}
	return out
}

// FormatSchedule rounds money to cents and energy to kWh
func FormatSchedule(schedule []domain.CashFlowRecord) []CashFlow {
	out := make([]CashFlow, len(schedule))
	for i, r := range schedule {
		out[i] = CashFlow{
			Year:                r.Year,
			Capex:               round(r.Capex, moneyPlaces),
			Revenue:             round(r.Revenue, moneyPlaces),
			Opex:                round(r.Opex, moneyPlaces),
			Maintenance:         round(r.Maintenance, moneyPlaces),
			Insurance:           round(r.Insurance, moneyPlaces),
			Taxes:               round(r.Taxes, moneyPlaces),
			DebtService:         round(r.DebtService, moneyPlaces),
			Incentives:          round(r.Incentives, moneyPlaces),
			SalvageValue:        round(r.SalvageValue, moneyPlaces),
			EnergyProductionMWh: round(r.EnergyProductionMWh, energyPlaces),
			NetCashFlow:         round(r.NetCashFlow, moneyPlaces),
			CumulativeCashFlow:  round(r.CumulativeCashFlow, moneyPlaces),
		}
	}
	return out
}

// FormatEvaluation maps a stateless evaluation
func FormatEvaluation(ev *domain.Evaluation) Evaluation {
	return Evaluation{
		Metrics:  FormatMetrics(ev.Metrics),
		Schedule: FormatSchedule(ev.Schedule),
	}
}

// FormatAnalysis maps a stored result. The schedule is left out when withSchedule is false.
func FormatAnalysis(r *domain.AnalysisResult, withSchedule bool) Analysis {
	out := Analysis{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		CalculatedAt: r.CalculatedAt,
		Financials:   r.Financials,
		Metrics:      FormatMetrics(r.Metrics),
	}
	if withSchedule {
		out.Schedule = FormatSchedule(r.Schedule)
	}
	return out
}

func round(v float64, places int32) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}
