package output

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ExcelWriter emits one worksheet per user. Category columns and totals are
// formulas so the workbook stays auditable.
type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, sheets []UserSheet) error {
	file := excelize.NewFile()
	defer file.Close()

	styles, err := newReportStyles(file)
	if err != nil {
		return err
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := file.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("rename default sheet to %s: %w", sheet.Name, err)
			}
		} else if _, err := file.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}

		if err := writeUserSheet(file, sheet, styles); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet.Name, err)
		}
	}
	if len(sheets) > 0 {
		file.SetActiveSheet(0)
	}

	return writeAtomic(path, func(tmp *os.File) error {
		if err := file.Write(tmp); err != nil {
			return fmt.Errorf("save excel output %s: %w", path, err)
		}
		return nil
	})
}

type reportStyles struct {
	header int
	hours  int
	total  int
}

func newReportStyles(file *excelize.File) (reportStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}

	header, err := file.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return reportStyles{}, fmt.Errorf("create header style: %w", err)
	}

	hours, err := file.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return reportStyles{}, fmt.Errorf("create hours style: %w", err)
	}

	total, err := file.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#B4C7E7"}, Pattern: 1},
		Font:   &excelize.Font{Bold: true},
		Border: border,
		NumFmt: 2,
	})
	if err != nil {
		return reportStyles{}, fmt.Errorf("create total style: %w", err)
	}

	return reportStyles{header: header, hours: hours, total: total}, nil
}

func writeUserSheet(file *excelize.File, sheet UserSheet, styles reportStyles) error {
	name := sheet.Name

	for col, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(name, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}
	if err := file.SetCellStyle(name, "A1", "I1", styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, entry := range sheet.Rows {
		row := firstDataRow + i
		values := []any{entry.Key, entry.Summary, entry.Author, entry.Date, entry.Hours, string(entry.Label)}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(name, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}

		formulas := map[string]string{
			fmt.Sprintf("G%d", row): projectFormula(row),
			fmt.Sprintf("H%d", row): commonFormula(row),
			fmt.Sprintf("I%d", row): archFormula(row),
		}
		for cell, formula := range formulas {
			if err := file.SetCellFormula(name, cell, formula); err != nil {
				return fmt.Errorf("set excel formula %s: %w", cell, err)
			}
		}
	}
	if len(sheet.Rows) > 0 {
		last := sheet.LastDataRow()
		if err := file.SetCellStyle(name, "E2", fmt.Sprintf("E%d", last), styles.hours); err != nil {
			return fmt.Errorf("style hours: %w", err)
		}
		if err := file.SetCellStyle(name, "G2", fmt.Sprintf("I%d", last), styles.hours); err != nil {
			return fmt.Errorf("style category hours: %w", err)
		}
	}

	if err := writeTotals(file, sheet, styles); err != nil {
		return err
	}

	_ = file.SetColWidth(name, "A", "A", 14)
	_ = file.SetColWidth(name, "B", "B", 48)
	_ = file.SetColWidth(name, "C", "D", 14)
	_ = file.SetColWidth(name, "E", "I", 12)
	if err := file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return nil
}

// writeTotals fills row last+1 (total hours) and row last+3 (category sums).
// A sheet without entries gets literal zeros instead of formulas.
func writeTotals(file *excelize.File, sheet UserSheet, styles reportStyles) error {
	name := sheet.Name
	last := sheet.LastDataRow()
	totalRow := sheet.TotalHoursRow()
	categoryRow := sheet.CategoryTotalsRow()

	cells := []struct {
		cell   string
		column string
	}{
		{cell: fmt.Sprintf("E%d", totalRow), column: "E"},
		{cell: fmt.Sprintf("G%d", categoryRow), column: "G"},
		{cell: fmt.Sprintf("H%d", categoryRow), column: "H"},
		{cell: fmt.Sprintf("I%d", categoryRow), column: "I"},
	}

	for _, target := range cells {
		if len(sheet.Rows) == 0 {
			if err := file.SetCellValue(name, target.cell, 0); err != nil {
				return fmt.Errorf("set excel total %s: %w", target.cell, err)
			}
		} else if err := file.SetCellFormula(name, target.cell, sumFormula(target.column, last)); err != nil {
			return fmt.Errorf("set excel total formula %s: %w", target.cell, err)
		}
		if err := file.SetCellStyle(name, target.cell, target.cell, styles.total); err != nil {
			return fmt.Errorf("style total %s: %w", target.cell, err)
		}
	}

	if err := file.SetCellValue(name, fmt.Sprintf("D%d", totalRow), "Total"); err != nil {
		return fmt.Errorf("set excel total caption: %w", err)
	}
	if err := file.SetCellValue(name, fmt.Sprintf("F%d", categoryRow), "By label"); err != nil {
		return fmt.Errorf("set excel category caption: %w", err)
	}
	return nil
}
