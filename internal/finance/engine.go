package finance

import (
	"reflect"
	"strings"

	"energy_finance/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Engine evaluates projects with a fixed Config
type Engine struct {
	cfg      Config
	validate *validator.Validate
}

// NewEngine creates an engine after checking its constants
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Engine{cfg: cfg, validate: v}, nil
}

// Config returns the engine constants
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate validates the inputs, builds the schedule and computes the metrics
func (e *Engine) Evaluate(project domain.ProjectDescription, financials domain.Financials, assumptions domain.AssumptionSet) (*domain.Evaluation, error) {
	schedule, err := e.BuildSchedule(project, financials, assumptions)
	if err != nil {
		return nil, err
	}

	return &domain.Evaluation{
		Schedule: schedule,
		Metrics:  e.Compute(schedule, assumptions),
	}, nil
}
