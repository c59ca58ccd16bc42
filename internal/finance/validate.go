package finance

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"energy_finance/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validate checks all inputs of one run and collects every problem found
func (e *Engine) Validate(project domain.ProjectDescription, financials domain.Financials, assumptions domain.AssumptionSet) error {
	verr := &ValidationError{}

	if err := e.ValidateProject(project); err != nil {
		verr.merge(asValidationError(err))
	}

	lifetime := project.ExpectedLifetimeYears
	if err := e.ValidateAssumptions(assumptions, lifetime); err != nil {
		verr.merge(asValidationError(err))
	}

	if err := e.ValidateFinancials(financials, lifetime, ResolveCapex(project)); err != nil {
		verr.merge(asValidationError(err))
	}

	return verr.orNil()
}

// ValidateProject checks field domains, the type tag and the cost/capacity consistency
func (e *Engine) ValidateProject(p domain.ProjectDescription) error {
	verr := e.structErrors(p)

	switch {
	case p.ProjectType == domain.ProjectTypeSolar && p.Solar == nil:
		verr.add("solar", "required for project_type solar")
	case p.ProjectType != domain.ProjectTypeSolar && p.Solar != nil:
		verr.add("solar", "only allowed for project_type solar (got %q)", p.ProjectType)
	}

	if p.Capex == nil && p.CapexPerMW == nil {
		verr.add("capex", "capex or capex_per_mw is required")
	}
	if p.Capex != nil && p.CapexPerMW != nil {
		expected := *p.CapexPerMW * p.CapacityMW
		if !withinTolerance(*p.Capex, expected, e.cfg.ConsistencyTolerance) {
			verr.add("capex", "inconsistent with capex_per_mw x capacity_mw (%.2f vs %.2f)", *p.Capex, expected)
		}
	}
	if p.OpexPerYear != nil && p.OpexPerMW != nil {
		expected := *p.OpexPerMW * p.CapacityMW
		if !withinTolerance(*p.OpexPerYear, expected, e.cfg.ConsistencyTolerance) {
			verr.add("opex_per_year", "inconsistent with opex_per_mw x capacity_mw (%.2f vs %.2f)", *p.OpexPerYear, expected)
		}
	}

	if s := p.Solar; s != nil && s.NumPanels != nil && s.PanelCapacityW != nil && p.CapacityMW > 0 {
		panelMW := float64(*s.NumPanels) * *s.PanelCapacityW / 1e6
		if !withinTolerance(panelMW, p.CapacityMW, e.cfg.CapacityTolerance) {
			verr.add("capacity_mw", "inconsistent with num_panels x panel_capacity_w (%.3f vs %.3f MW)", p.CapacityMW, panelMW)
		}
	}

	if p.StartDate != nil && p.CommercialOperationDate != nil &&
		p.CommercialOperationDate.Before(p.StartDate.Time) {
		verr.add("commercial_operation_date", "must not be before start_date")
	}

	return verr.orNil()
}

// ValidateAssumptions checks rate domains and the PPA term against the lifetime
func (e *Engine) ValidateAssumptions(a domain.AssumptionSet, lifetime int) error {
	verr := e.structErrors(a)

	e.checkRate(verr, "discount_rate", a.DiscountRate)
	if a.DiscountRate <= -1 {
		verr.add("discount_rate", "must be greater than -1")
	}
	e.checkRate(verr, "inflation_rate", a.InflationRate)
	e.checkRate(verr, "interest_rate", a.InterestRate)
	if a.InterestRate <= -1 {
		verr.add("interest_rate", "must be greater than -1")
	}

	if a.PPA != nil {
		e.checkRate(verr, "ppa.escalation", a.PPA.Escalation)
		if lifetime > 0 && a.PPA.TermYears > lifetime {
			verr.add("ppa.term_years", "exceeds project lifetime (%d > %d)", a.PPA.TermYears, lifetime)
		}
	}
	if a.Merchant != nil {
		e.checkRate(verr, "merchant.escalation", a.Merchant.Escalation)
	}

	return verr.orNil()
}

// ValidateFinancials checks amounts, terms and the capex schedule
func (e *Engine) ValidateFinancials(f domain.Financials, lifetime int, capex float64) error {
	verr := e.structErrors(f)

	if lifetime > 0 {
		if f.DebtTermYears > lifetime {
			verr.add("debt_term_years", "exceeds project lifetime (%d > %d)", f.DebtTermYears, lifetime)
		}
		if f.DepreciationYears > lifetime {
			verr.add("depreciation_years", "exceeds project lifetime (%d > %d)", f.DepreciationYears, lifetime)
		}
		if f.ProductionIncentiveYears > lifetime {
			verr.add("production_incentive_years", "exceeds project lifetime (%d > %d)", f.ProductionIncentiveYears, lifetime)
		}
	}

	if len(f.CapexSchedule) > 0 {
		if lifetime > 0 && len(f.CapexSchedule) > lifetime+1 {
			verr.add("capex_schedule", "has %d entries for %d schedule years", len(f.CapexSchedule), lifetime+1)
		}
		total := 0.0
		for _, amount := range f.CapexSchedule {
			total += amount
		}
		if !withinTolerance(total, capex, e.cfg.ConsistencyTolerance) {
			verr.add("capex_schedule", "sums to %.2f but capex is %.2f", total, capex)
		}
	}

	return verr.orNil()
}

func (e *Engine) checkRate(verr *ValidationError, field string, rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		verr.add(field, "must be a finite number")
		return
	}
	if rate < e.cfg.MinRate {
		verr.add(field, "must be >= %v", e.cfg.MinRate)
	}
}

// structErrors runs the validate tags and converts the result
func (e *Engine) structErrors(s interface{}) *ValidationError {
	verr := &ValidationError{}

	err := e.validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("input", "%v", err)
		return verr
	}

	for _, fe := range fieldErrs {
		verr.add(fieldPath(fe.Namespace()), "%s", describeTag(fe))
	}
	return verr
}

// fieldPath drops the struct name from "ProjectDescription.solar.azimuth"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s long", fe.Param())
	default:
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
}

func asValidationError(err error) *ValidationError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return &ValidationError{Errors: []FieldError{{Field: "input", Message: err.Error()}}}
}

// withinTolerance compares a and b relative to the larger magnitude
func withinTolerance(a, b, tolerance float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return diff <= tolerance*scale
}

// ResolveCapex returns the total capital cost of a project
func ResolveCapex(p domain.ProjectDescription) float64 {
	if p.Capex != nil {
		return *p.Capex
	}
	if p.CapexPerMW != nil {
		return *p.CapexPerMW * p.CapacityMW
	}
	return 0
}

// ResolveOpex returns the year-1 operating cost of a project
func ResolveOpex(p domain.ProjectDescription) float64 {
	if p.OpexPerYear != nil {
		return *p.OpexPerYear
	}
	if p.OpexPerMW != nil {
		return *p.OpexPerMW * p.CapacityMW
	}
	return 0
}
