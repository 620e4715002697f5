package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"jwlrep/internal/classify"
)

const verifyTolerance = 1e-6

// SheetCheck compares the sums recomputed from a sheet's rows with the values
// its total formulas evaluate to.
type SheetCheck struct {
	Name       string
	Entries    int
	Expected   Totals
	Actual     Totals
	Mismatches []string
}

func (c SheetCheck) OK() bool {
	return len(c.Mismatches) == 0
}

type VerifyResult struct {
	Path    string
	Sheets  []SheetCheck
	Skipped []string
}

func (r VerifyResult) OK() bool {
	for _, sheet := range r.Sheets {
		if !sheet.OK() {
			return false
		}
	}
	return true
}

// VerifyWorkbook reopens a report workbook and evaluates its total formulas.
// Sheets without the report header are skipped.
func VerifyWorkbook(path string) (VerifyResult, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer file.Close()

	result := VerifyResult{Path: path}
	for _, name := range file.GetSheetList() {
		header, err := file.GetCellValue(name, "A1")
		if err != nil {
			return VerifyResult{}, fmt.Errorf("read header of %s: %w", name, err)
		}
		if header != Headers[0] {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		check, err := verifySheet(file, name)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("verify sheet %s: %w", name, err)
		}
		result.Sheets = append(result.Sheets, check)
	}
	return result, nil
}

func verifySheet(file *excelize.File, name string) (SheetCheck, error) {
	check := SheetCheck{Name: name}
	raw := excelize.Options{RawCellValue: true}

	row := firstDataRow
	for {
		// Every data row carries a label; the totals row below does not.
		label, err := file.GetCellValue(name, fmt.Sprintf("F%d", row), raw)
		if err != nil {
			return SheetCheck{}, err
		}
		if label == "" {
			break
		}

		hoursText, err := file.GetCellValue(name, fmt.Sprintf("E%d", row), raw)
		if err != nil {
			return SheetCheck{}, err
		}
		hours, err := parseHours(hoursText)
		if err != nil {
			return SheetCheck{}, fmt.Errorf("row %d: %w", row, err)
		}

		entry := Row{Hours: hours, Label: classify.Label(label)}
		check.Expected.Hours += entry.Hours
		check.Expected.Project += entry.Project()
		check.Expected.Common += entry.Common()
		check.Expected.Arch += entry.Arch()
		check.Entries++
		row++
	}

	last := row - 1
	totalRow := last + 1
	categoryRow := last + 3
	targets := []struct {
		label    string
		cell     string
		expected float64
		actual   *float64
	}{
		{label: "total", cell: fmt.Sprintf("E%d", totalRow), expected: check.Expected.Hours, actual: &check.Actual.Hours},
		{label: "project", cell: fmt.Sprintf("G%d", categoryRow), expected: check.Expected.Project, actual: &check.Actual.Project},
		{label: "common", cell: fmt.Sprintf("H%d", categoryRow), expected: check.Expected.Common, actual: &check.Actual.Common},
		{label: "arch", cell: fmt.Sprintf("I%d", categoryRow), expected: check.Expected.Arch, actual: &check.Actual.Arch},
	}

	for _, target := range targets {
		value, err := evaluateCell(file, name, target.cell)
		if err != nil {
			check.Mismatches = append(check.Mismatches, fmt.Sprintf("%s %s: %v", target.label, target.cell, err))
			continue
		}
		*target.actual = value
		if math.Abs(value-target.expected) > verifyTolerance {
			check.Mismatches = append(check.Mismatches, fmt.Sprintf(
				"%s %s: formula gives %.4f, rows sum to %.4f", target.label, target.cell, value, target.expected,
			))
		}
	}
	return check, nil
}

// evaluateCell returns the formula result of cell, or its literal value when
// the cell has no formula.
func evaluateCell(file *excelize.File, sheet, cell string) (float64, error) {
	formula, err := file.GetCellFormula(sheet, cell)
	if err != nil {
		return 0, err
	}

	var text string
	if formula == "" {
		text, err = file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	} else {
		text, err = file.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	}
	if err != nil {
		return 0, err
	}
	return parseHours(text)
}

func parseHours(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty value")
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q as hours: %w", text, err)
	}
	return value, nil
}
