package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"energy_finance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func assertExampleProject(t *testing.T, p domain.ProjectDescription) {
	t.Helper()

	assert.Equal(t, "Solar Farm Example", p.Name)
	assert.Equal(t, "Sunny Valley, CA", p.Location)
	assert.Equal(t, domain.ProjectTypeSolar, p.ProjectType)
	assert.Equal(t, domain.StatusPlanning, p.Status)
	assert.InDelta(t, 5.5, p.CapacityMW, 1e-9)
	require.NotNil(t, p.Capex)
	assert.InDelta(t, 5500000, *p.Capex, 1e-6)
	require.NotNil(t, p.OpexPerYear)
	assert.InDelta(t, 75000, *p.OpexPerYear, 1e-6)
	assert.Equal(t, 25, p.ExpectedLifetimeYears)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2025-01-01", p.StartDate.String())

	require.NotNil(t, p.Solar)
	require.NotNil(t, p.Solar.NumPanels)
	assert.Equal(t, 13750, *p.Solar.NumPanels)
	require.NotNil(t, p.Solar.Longitude)
	assert.InDelta(t, -118.2, *p.Solar.Longitude, 1e-9)
	assert.InDelta(t, 0.5, p.Solar.DegradationRate, 1e-9)
	assert.Equal(t, domain.TrackingFixed, p.Solar.TrackingType)
}

func TestCSVTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplateCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ColumnNames(), ","), lines[0])

	result, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 2, result.Rows[0].Row)
	assertExampleProject(t, result.Rows[0].Project)
}

func TestXLSXTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplateXLSX(&buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DataSheet, InstructionsSheet}, f.GetSheetList())

	instructions, err := f.GetRows(InstructionsSheet)
	require.NoError(t, err)
	require.Len(t, instructions, len(Columns)+1)
	assert.Equal(t, []string{"Field", "Description", "Example"}, instructions[0])
	assert.Equal(t, "capacity_mw", instructions[4][0])

	lastInput, err := excelize.CoordinatesToCellName(len(Columns), 3)
	require.NoError(t, err)
	firstStyle, err := f.GetCellStyle(DataSheet, "A3")
	require.NoError(t, err)
	lastStyle, err := f.GetCellStyle(DataSheet, lastInput)
	require.NoError(t, err)
	assert.NotZero(t, firstStyle)
	assert.Equal(t, firstStyle, lastStyle)
	value, err := f.GetCellValue(DataSheet, "A3")
	require.NoError(t, err)
	assert.Empty(t, value)

	result, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Rows, 1)
	assertExampleProject(t, result.Rows[0].Project)
}

func TestParseCSV(t *testing.T) {
	t.Run("skips blank rows and keeps sheet row numbers", func(t *testing.T) {
		input := "name,project_type,capacity_mw,expected_lifetime_years\n" +
			"A,wind,10,20\n" +
			",,,\n" +
			"B,solar,2.5,25\n"

		result, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, 2, result.Rows[0].Row)
		assert.Equal(t, 4, result.Rows[1].Row)
		assert.Equal(t, "B", result.Rows[1].Project.Name)
		assert.Nil(t, result.Rows[0].Project.Solar)
	})

	t.Run("rejects unknown columns", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("name,colour\nA,red\n"))
		require.ErrorIs(t, err, ErrInvalidSheet)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("rejects duplicate columns", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("name,name\nA,B\n"))
		require.Error(t, err)
	})

	t.Run("reports bad cells per row", func(t *testing.T) {
		input := "name,capacity_mw,num_panels,start_date\n" +
			"good,1,10,2025-01-01\n" +
			"bad,lots,10.5,01/01/2025\n"

		result, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		require.Len(t, result.Errors, 3)
		for _, rowErr := range result.Errors {
			assert.Equal(t, 3, rowErr.Row)
		}
		assert.Equal(t, "capacity_mw", result.Errors[0].Column)
		assert.Equal(t, "num_panels", result.Errors[1].Column)
		assert.Equal(t, "start_date", result.Errors[2].Column)
	})

	t.Run("accepts byte order mark and thousands separators", func(t *testing.T) {
		input := "\ufeffname,capex\nA,\"1,250,000\"\n"

		result, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		require.NotNil(t, result.Rows[0].Project.Capex)
		assert.InDelta(t, 1250000, *result.Rows[0].Project.Capex, 1e-6)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestParseByExtension(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplateCSV(&buf))

	result, err := Parse("Projects.CSV", &buf)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	_, err = Parse("projects.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRowErrorMessage(t *testing.T) {
	assert.Equal(t, "row 3, capex: bad", RowError{Row: 3, Column: "capex", Message: "bad"}.Error())
	assert.Equal(t, "row 4: bad", RowError{Row: 4, Message: "bad"}.Error())
}
