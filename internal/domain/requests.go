package domain

// AssumptionOverrides replaces individual fields of the default assumption set.
// Nil fields keep the default.
type AssumptionOverrides struct {
	DiscountRate  *float64       `json:"discount_rate,omitempty"`
	InflationRate *float64       `json:"inflation_rate,omitempty"`
	DebtRatio     *float64       `json:"debt_ratio,omitempty"`
	InterestRate  *float64       `json:"interest_rate,omitempty"`
	PPA           *PPATerms      `json:"ppa,omitempty"`
	Merchant      *MerchantTerms `json:"merchant,omitempty"`
}

// Apply returns base with the overrides set
func (o *AssumptionOverrides) Apply(base AssumptionSet) AssumptionSet {
	if o == nil {
		return base
	}
	if o.DiscountRate != nil {
		base.DiscountRate = *o.DiscountRate
	}
	if o.InflationRate != nil {
		base.InflationRate = *o.InflationRate
	}
	if o.DebtRatio != nil {
		base.DebtRatio = *o.DebtRatio
	}
	if o.InterestRate != nil {
		base.InterestRate = *o.InterestRate
	}
	if o.PPA != nil {
		ppa := *o.PPA
		base.PPA = &ppa
	}
	if o.Merchant != nil {
		merchant := *o.Merchant
		base.Merchant = &merchant
	}
	return base
}

// AnalysisRequest runs the engine against a stored project
type AnalysisRequest struct {
	Assumptions *AssumptionOverrides `json:"assumptions,omitempty"`
	Financials  Financials           `json:"financials"`
}

// CalculateRequest runs the engine against an inline project without storing anything
type CalculateRequest struct {
	Project     ProjectDescription   `json:"project"`
	Assumptions *AssumptionOverrides `json:"assumptions,omitempty"`
	Financials  Financials           `json:"financials"`
}

// BatchRequest analyzes several stored projects with the same inputs
type BatchRequest struct {
	ProjectIDs  []string             `json:"project_ids" binding:"required,min=1"`
	Assumptions *AssumptionOverrides `json:"assumptions,omitempty"`
	Financials  Financials           `json:"financials"`
}

// BatchOutcome is the result of one project in a batch. Exactly one of
// Result and Error is set.
type BatchOutcome struct {
	ProjectID string          `json:"project_id"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     error           `json:"-"`
}
