// Package spreadsheet writes the project import templates and reads filled-in
// templates back into project descriptions.
package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"

	"energy_finance/internal/domain"
)

// Sheet names of the XLSX template
const (
	DataSheet         = "Project Data"
	InstructionsSheet = "Instructions"
)

// Column is one template field
type Column struct {
	Name        string
	Description string
	Example     interface{}

	set func(p *domain.ProjectDescription, value string) error
}

// Columns is the ordered field list of the template. Names equal the JSON
// names of ProjectDescription, with the solar extension flattened.
var Columns = []Column{
	{"name", "Name of the solar project", "Solar Farm Example", setString(func(p *domain.ProjectDescription) *string { return &p.Name })},
	{"description", "Brief description of the project", "5.5 MW solar PV project located in California", setString(func(p *domain.ProjectDescription) *string { return &p.Description })},
	{"location", "Physical location of the project", "Sunny Valley, CA", setString(func(p *domain.ProjectDescription) *string { return &p.Location })},
	{"capacity_mw", "Capacity in megawatts (MW)", 5.5, setFloat(func(p *domain.ProjectDescription) *float64 { return &p.CapacityMW })},
	{"project_type", "Type of project (solar, wind, storage, hydro, other)", "solar", setString(func(p *domain.ProjectDescription) *string { return &p.ProjectType })},
	{"capex", "Total capital expenditure ($)", 5500000, setFloatPtr(func(p *domain.ProjectDescription) **float64 { return &p.Capex })},
	{"capex_per_mw", "Capital expenditure per MW ($/MW)", 1000000, setFloatPtr(func(p *domain.ProjectDescription) **float64 { return &p.CapexPerMW })},
	{"opex_per_year", "Annual operating expenditure ($)", 75000, setFloatPtr(func(p *domain.ProjectDescription) **float64 { return &p.OpexPerYear })},
	{"opex_per_mw", "Operating expenditure per MW ($/MW/year)", 13636.36, setFloatPtr(func(p *domain.ProjectDescription) **float64 { return &p.OpexPerMW })},
	{"start_date", "Project start date (YYYY-MM-DD)", "2025-01-01", setDate(func(p *domain.ProjectDescription) **domain.Date { return &p.StartDate })},
	{"commercial_operation_date", "Commercial operation date (YYYY-MM-DD)", "2025-06-01", setDate(func(p *domain.ProjectDescription) **domain.Date { return &p.CommercialOperationDate })},
	{"expected_lifetime_years", "Expected operational lifetime in years", 25, setInt(func(p *domain.ProjectDescription) *int { return &p.ExpectedLifetimeYears })},
	{"status", "Current status (planning, construction, operational, decommissioned)", "planning", setString(func(p *domain.ProjectDescription) *string { return &p.Status })},
	{"panel_type", "Solar panel type (monocrystalline, polycrystalline, thin-film, bifacial)", "monocrystalline", solar(func(s *domain.SolarExtension, v string) error {
		s.PanelType = v
		return nil
	})},
	{"panel_efficiency", "Solar panel efficiency (%)", 21.5, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.PanelEfficiency) })},
	{"num_panels", "Number of solar panels", 13750, solar(func(s *domain.SolarExtension, v string) error {
		n, err := parseInt(v)
		if err != nil {
			return err
		}
		s.NumPanels = &n
		return nil
	})},
	{"panel_capacity_w", "Capacity per panel (watts)", 400, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.PanelCapacityW) })},
	{"latitude", "Project latitude (decimal degrees)", 34.5, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.Latitude) })},
	{"longitude", "Project longitude (decimal degrees)", -118.2, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.Longitude) })},
	{"tilt_angle", "Panel tilt angle (degrees)", 20, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.TiltAngle) })},
	{"azimuth", "Panel azimuth angle (degrees, 180 = south)", 180, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.Azimuth) })},
	{"degradation_rate", "Annual panel degradation rate (%)", 0.5, solar(func(s *domain.SolarExtension, v string) error {
		f, err := parseFloat(v)
		if err != nil {
			return err
		}
		s.DegradationRate = f
		return nil
	})},
	{"performance_ratio", "System performance ratio (0-1)", 0.75, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.PerformanceRatio) })},
	{"land_area_acres", "Total land area (acres)", 25, solar(func(s *domain.SolarExtension, v string) error { return parseFloatPtr(v, &s.LandAreaAcres) })},
	{"tracking_type", "Tracking system type (fixed, single-axis, dual-axis)", "fixed", solar(func(s *domain.SolarExtension, v string) error {
		s.TrackingType = domain.TrackingType(v)
		return nil
	})},
}

// ColumnNames returns the template header in order
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

func columnByName(name string) (Column, bool) {
	for _, c := range Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func exampleText(v interface{}) string {
	return fmt.Sprint(v)
}

func setString(field func(*domain.ProjectDescription) *string) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		*field(p) = v
		return nil
	}
}

func setFloat(field func(*domain.ProjectDescription) *float64) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		f, err := parseFloat(v)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

func setFloatPtr(field func(*domain.ProjectDescription) **float64) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		return parseFloatPtr(v, field(p))
	}
}

func setInt(field func(*domain.ProjectDescription) *int) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		n, err := parseInt(v)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func setDate(field func(*domain.ProjectDescription) **domain.Date) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		d, err := domain.ParseDate(v)
		if err != nil {
			return err
		}
		*field(p) = &d
		return nil
	}
}

// solar applies a value to the solar extension, creating it on first use
func solar(apply func(*domain.SolarExtension, string) error) func(*domain.ProjectDescription, string) error {
	return func(p *domain.ProjectDescription, v string) error {
		if p.Solar == nil {
			p.Solar = &domain.SolarExtension{}
		}
		return apply(p.Solar, v)
	}
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return f, nil
}

func parseFloatPtr(v string, dst **float64) error {
	f, err := parseFloat(v)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

// parseInt accepts whole numbers written as floats, which spreadsheets often export
func parseInt(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := parseFloat(v)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return int(f), nil
}
