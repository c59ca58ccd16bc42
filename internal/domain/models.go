// internal/domain/models.go
// Project, assumption and result types shared by the engine, storage and API layers.

package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Project type tags
const (
	ProjectTypeSolar   = "solar"
	ProjectTypeWind    = "wind"
	ProjectTypeStorage = "storage"
	ProjectTypeHydro   = "hydro"
	ProjectTypeOther   = "other"
)

// Project status values
const (
	StatusPlanning       = "planning"
	StatusConstruction   = "construction"
	StatusOperational    = "operational"
	StatusDecommissioned = "decommissioned"
)

// TrackingType is the mounting configuration of a solar array
type TrackingType string

const (
	TrackingFixed      TrackingType = "fixed"
	TrackingSingleAxis TrackingType = "single-axis"
	TrackingDualAxis   TrackingType = "dual-axis"
)

// DateLayout is the wire format for project dates
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalBSONValue stores the date as a YYYY-MM-DD string
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(t, data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ProjectDescription is the generation asset being evaluated.
// The JSON names double as the spreadsheet column names.
type ProjectDescription struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Location    string `json:"location,omitempty" bson:"location,omitempty" validate:"max=100"`
	ProjectType string `json:"project_type" bson:"project_type" validate:"required,oneof=solar wind storage hydro other"`
	Status      string `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,oneof=planning construction operational decommissioned"`

	CapacityMW float64 `json:"capacity_mw" bson:"capacity_mw" validate:"gte=0"`

	Capex       *float64 `json:"capex,omitempty" bson:"capex,omitempty" validate:"omitempty,gte=0"`
	CapexPerMW  *float64 `json:"capex_per_mw,omitempty" bson:"capex_per_mw,omitempty" validate:"omitempty,gte=0"`
	OpexPerYear *float64 `json:"opex_per_year,omitempty" bson:"opex_per_year,omitempty" validate:"omitempty,gte=0"`
	OpexPerMW   *float64 `json:"opex_per_mw,omitempty" bson:"opex_per_mw,omitempty" validate:"omitempty,gte=0"`

	StartDate               *Date `json:"start_date,omitempty" bson:"start_date,omitempty"`
	CommercialOperationDate *Date `json:"commercial_operation_date,omitempty" bson:"commercial_operation_date,omitempty"`
	ExpectedLifetimeYears   int   `json:"expected_lifetime_years" bson:"expected_lifetime_years" validate:"gt=0,lte=100"`

	Solar *SolarExtension `json:"solar,omitempty" bson:"solar,omitempty" validate:"omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at"`
}

// SolarExtension holds the solar-specific part of a project
type SolarExtension struct {
	PanelType        string       `json:"panel_type,omitempty" bson:"panel_type,omitempty"`
	PanelEfficiency  *float64     `json:"panel_efficiency,omitempty" bson:"panel_efficiency,omitempty" validate:"omitempty,gt=0,lte=100"`
	NumPanels        *int         `json:"num_panels,omitempty" bson:"num_panels,omitempty" validate:"omitempty,gte=0"`
	PanelCapacityW   *float64     `json:"panel_capacity_w,omitempty" bson:"panel_capacity_w,omitempty" validate:"omitempty,gt=0"`
	Latitude         *float64     `json:"latitude,omitempty" bson:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64     `json:"longitude,omitempty" bson:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	TiltAngle        *float64     `json:"tilt_angle,omitempty" bson:"tilt_angle,omitempty" validate:"omitempty,gte=0,lte=90"`
	Azimuth          *float64     `json:"azimuth,omitempty" bson:"azimuth,omitempty" validate:"omitempty,gte=0,lt=360"`
	DegradationRate  float64      `json:"degradation_rate" bson:"degradation_rate" validate:"gte=0"`
	PerformanceRatio *float64     `json:"performance_ratio,omitempty" bson:"performance_ratio,omitempty" validate:"omitempty,gt=0,lte=1"`
	LandAreaAcres    *float64     `json:"land_area_acres,omitempty" bson:"land_area_acres,omitempty" validate:"omitempty,gte=0"`
	TrackingType     TrackingType `json:"tracking_type,omitempty" bson:"tracking_type,omitempty" validate:"omitempty,oneof=fixed single-axis dual-axis"`
}

// PPATerms is a power purchase agreement
type PPATerms struct {
	Price      float64 `json:"price" bson:"price" validate:"gte=0"`           // $/MWh
	Escalation float64 `json:"escalation" bson:"escalation"`                  // fraction per year
	TermYears  int     `json:"term_years" bson:"term_years" validate:"gte=0"` // 0 = whole lifetime
}

// MerchantTerms is the uncontracted fallback price
type MerchantTerms struct {
	Price      float64 `json:"price" bson:"price" validate:"gte=0"`
	Escalation float64 `json:"escalation" bson:"escalation"`
}

// AssumptionSet bundles the financial assumptions of one run.
// It is passed by value; the engine never modifies it.
type AssumptionSet struct {
	DiscountRate  float64        `json:"discount_rate" bson:"discount_rate"`
	InflationRate float64        `json:"inflation_rate" bson:"inflation_rate"`
	DebtRatio     float64        `json:"debt_ratio" bson:"debt_ratio" validate:"gte=0,lte=1"`
	InterestRate  float64        `json:"interest_rate" bson:"interest_rate"`
	PPA           *PPATerms      `json:"ppa,omitempty" bson:"ppa,omitempty"`
	Merchant      *MerchantTerms `json:"merchant,omitempty" bson:"merchant,omitempty"`
}

// Financials carries the cost and incentive details that do not belong
// to the asset description or the market assumptions.
type Financials struct {
	MaintenancePerYear        float64   `json:"maintenance_per_year" bson:"maintenance_per_year" validate:"gte=0"`
	InsurancePerYear          float64   `json:"insurance_per_year" bson:"insurance_per_year" validate:"gte=0"`
	TaxRate                   float64   `json:"tax_rate" bson:"tax_rate" validate:"gte=0,lte=1"`
	DepreciationYears         int       `json:"depreciation_years" bson:"depreciation_years" validate:"gte=0"`
	InvestmentTaxCredit       float64   `json:"investment_tax_credit" bson:"investment_tax_credit" validate:"gte=0,lte=1"`
	ProductionIncentivePerMWh float64   `json:"production_incentive_per_mwh" bson:"production_incentive_per_mwh" validate:"gte=0"`
	ProductionIncentiveYears  int       `json:"production_incentive_years" bson:"production_incentive_years" validate:"gte=0"`
	UpfrontGrant              float64   `json:"upfront_grant" bson:"upfront_grant" validate:"gte=0"`
	SalvageValue              float64   `json:"salvage_value" bson:"salvage_value" validate:"gte=0"`
	DebtTermYears             int       `json:"debt_term_years" bson:"debt_term_years" validate:"gte=0"`
	CapexSchedule             []float64 `json:"capex_schedule,omitempty" bson:"capex_schedule,omitempty" validate:"omitempty,dive,gte=0"`
}

// CashFlowRecord is one year of the projection.
// Outflows (capex, opex, maintenance, insurance, taxes, debt service) are stored
// as negative values; revenue, incentives and salvage as positive values.
type CashFlowRecord struct {
	Year                int     `json:"year" bson:"year"`
	Capex               float64 `json:"capex" bson:"capex"`
	Revenue             float64 `json:"revenue" bson:"revenue"`
	Opex                float64 `json:"opex" bson:"opex"`
	Maintenance         float64 `json:"maintenance" bson:"maintenance"`
	Insurance           float64 `json:"insurance" bson:"insurance"`
	Taxes               float64 `json:"taxes" bson:"taxes"`
	DebtService         float64 `json:"debt_service" bson:"debt_service"`
	Incentives          float64 `json:"incentives" bson:"incentives"`
	SalvageValue        float64 `json:"salvage_value" bson:"salvage_value"`
	EnergyProductionMWh float64 `json:"energy_production_mwh" bson:"energy_production_mwh"`
	NetCashFlow         float64 `json:"net_cash_flow" bson:"net_cash_flow"`
	CumulativeCashFlow  float64 `json:"cumulative_cash_flow" bson:"cumulative_cash_flow"`
}

// FlowSum adds every component flow of the record
func (r CashFlowRecord) FlowSum() float64 {
	return r.Capex + r.Revenue + r.Opex + r.Maintenance + r.Insurance +
		r.Taxes + r.DebtService + r.Incentives + r.SalvageValue
}

// CostSum is the magnitude of the outflow components
func (r CashFlowRecord) CostSum() float64 {
	return -(r.Capex + r.Opex + r.Maintenance + r.Insurance + r.Taxes + r.DebtService)
}

// MetricStatus tells whether a metric carries a usable value
type MetricStatus string

const (
	MetricOK            MetricStatus = "ok"
	MetricUndefined     MetricStatus = "undefined"
	MetricNoConvergence MetricStatus = "no_convergence"
	MetricNever         MetricStatus = "never"
)

// Metric is a single computed figure with its validity
type Metric struct {
	Value  float64      `json:"value" bson:"value"`
	Status MetricStatus `json:"status" bson:"status"`
	Reason string       `json:"reason,omitempty" bson:"reason,omitempty"`
}

// Valid reports whether Value is meaningful
func (m Metric) Valid() bool {
	return m.Status == MetricOK
}

// YearRatio is a per-year ratio such as DSCR
type YearRatio struct {
	Year  int     `json:"year" bson:"year"`
	Value float64 `json:"value" bson:"value"`
}

// FinancialMetrics is the summary of one evaluation
type FinancialMetrics struct {
	NPV                      Metric      `json:"npv" bson:"npv"`
	IRR                      Metric      `json:"irr" bson:"irr"`
	MIRR                     Metric      `json:"mirr" bson:"mirr"`
	PaybackPeriod            Metric      `json:"payback_period" bson:"payback_period"`
	LCOE                     Metric      `json:"lcoe" bson:"lcoe"`
	ProfitabilityIndex       Metric      `json:"profitability_index" bson:"profitability_index"`
	DebtServiceCoverageRatio Metric      `json:"debt_service_coverage_ratio" bson:"debt_service_coverage_ratio"`
	DSCRByYear               []YearRatio `json:"dscr_by_year,omitempty" bson:"dscr_by_year,omitempty"`

	Assumptions AssumptionSet `json:"assumptions" bson:"assumptions"`
}

// Evaluation is the full output of one engine run
type Evaluation struct {
	Schedule []CashFlowRecord `json:"schedule" bson:"schedule"`
	Metrics  FinancialMetrics `json:"metrics" bson:"metrics"`
}

// AnalysisResult is an evaluation stored against a project
type AnalysisResult struct {
	ID           string           `json:"id" bson:"_id"`
	ProjectID    string           `json:"project_id" bson:"project_id"`
	Financials   Financials       `json:"financials" bson:"financials"`
	Schedule     []CashFlowRecord `json:"schedule" bson:"schedule"`
	Metrics      FinancialMetrics `json:"metrics" bson:"metrics"`
	CalculatedAt time.Time        `json:"calculated_at" bson:"calculated_at"`
}

// SchedulePoint is one schedule year queued for the time series store
type SchedulePoint struct {
	ProjectID    string
	ResultID     string
	CalculatedAt time.Time
	Record       CashFlowRecord
}

// ProjectFilter narrows project listings
type ProjectFilter struct {
	ProjectType string
	Status      string
	Limit       int
	Offset      int
}

// Stats is the service health summary
type Stats struct {
	Projects              int64   `json:"projects"`
	AnalysesRun           uint64  `json:"analyses_run"`
	AnalysesFailed        uint64  `json:"analyses_failed"`
	CacheHits             uint64  `json:"cache_hits"`
	PendingScheduleWrites int     `json:"pending_schedule_writes"`
	SuccessRate           float64 `json:"success_rate"`
	DatabaseType          string  `json:"database_type"`
	ScheduleStore         string  `json:"schedule_store"`
}
