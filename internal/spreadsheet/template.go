package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const commentAuthor = "energy_finance"

// WriteTemplateXLSX writes the import workbook: a "Project Data" sheet with a
// styled, commented header, one example row and one blank row, and an
// "Instructions" sheet describing every field.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeDataSheet(f); err != nil {
		return err
	}

	if _, err := f.NewSheet(InstructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	if err := writeInstructionsSheet(f); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDataSheet(f *excelize.File) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	inputStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "BFBFBF", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create input style: %w", err)
	}

	for i, col := range Columns {
		header, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		example, _ := excelize.CoordinatesToCellName(i+1, 2)

		if err := f.SetCellValue(DataSheet, header, col.Name); err != nil {
			return fmt.Errorf("write header %s: %w", col.Name, err)
		}
		if err := f.SetCellValue(DataSheet, example, col.Example); err != nil {
			return fmt.Errorf("write example %s: %w", col.Name, err)
		}
		if err := f.AddComment(DataSheet, excelize.Comment{
			Cell:   header,
			Author: commentAuthor,
			Text:   col.Description,
		}); err != nil {
			return fmt.Errorf("comment %s: %w", col.Name, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(Columns))
	lastHeader, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(DataSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	// row 3 is the empty input row
	lastInput, _ := excelize.CoordinatesToCellName(len(Columns), 3)
	if err := f.SetCellStyle(DataSheet, "A3", lastInput, inputStyle); err != nil {
		return fmt.Errorf("style input row: %w", err)
	}
	if err := f.SetColWidth(DataSheet, "A", last, 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeInstructionsSheet(f *excelize.File) error {
	rows := [][]interface{}{{"Field", "Description", "Example"}}
	for _, col := range Columns {
		rows = append(rows, []interface{}{col.Name, col.Description, col.Example})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(InstructionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write instructions row %d: %w", i+1, err)
		}
	}

	widths := map[string]float64{"A": 20, "B": 50, "C": 25}
	for col, width := range widths {
		if err := f.SetColWidth(InstructionsSheet, col, col, width); err != nil {
			return fmt.Errorf("set instructions width: %w", err)
		}
	}
	return nil
}

// WriteTemplateCSV writes the data sheet of the template as CSV
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	example := make([]string, len(Columns))
	blank := make([]string, len(Columns))
	for i, col := range Columns {
		example[i] = exampleText(col.Example)
	}

	for _, record := range [][]string{ColumnNames(), example, blank} {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv template: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
