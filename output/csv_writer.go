package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVWriter writes one file per user next to path, named <stem>_<sheet>.csv.
// CSV has no formulas, so category values and totals are precomputed.
// Every file is staged first; nothing is renamed into place unless all of
// them were written.
type CSVWriter struct{}

func (w *CSVWriter) Write(path string, sheets []UserSheet) error {
	targets := CSVPaths(path, sheets)
	staged := make([]stagedFile, 0, len(sheets))
	defer func() {
		for _, file := range staged {
			file.discard()
		}
	}()

	for i, sheet := range sheets {
		file, err := stageFile(targets[i], func(tmp *os.File) error {
			return writeCSVSheet(tmp, sheet)
		})
		if err != nil {
			return fmt.Errorf("write csv for %s: %w", sheet.User, err)
		}
		staged = append(staged, file)
	}

	for _, file := range staged {
		if err := file.commit(); err != nil {
			return err
		}
	}
	return nil
}

// CSVPaths returns one target per sheet. File names are compared
// case-insensitively and get a "_n" suffix when two sheets map to the same file.
func CSVPaths(path string, sheets []UserSheet) []string {
	used := make(map[string]bool, len(sheets))
	paths := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		name := csvFileName(sheet.Name)
		candidate := name
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[strings.ToLower(candidate)] = true
		paths = append(paths, CSVPathForSheet(path, candidate))
	}
	return paths
}

func CSVPathForSheet(path, sheetName string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "_" + csvFileName(sheetName) + ".csv"
}

func csvFileName(sheetName string) string {
	return strings.ReplaceAll(sheetName, " ", "_")
}

func writeCSVSheet(file *os.File, sheet UserSheet) error {
	writer := csv.NewWriter(file)

	if err := writer.Write(Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, entry := range sheet.Rows {
		row := []string{
			entry.Key,
			entry.Summary,
			entry.Author,
			entry.Date,
			formatHours(entry.Hours),
			string(entry.Label),
			formatHours(entry.Project()),
			formatHours(entry.Common()),
			formatHours(entry.Arch()),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	totals := sheet.Totals()
	trailer := [][]string{
		{"", "", "", "Total", formatHours(totals.Hours), "", "", "", ""},
		{"", "", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "By label", formatHours(totals.Project), formatHours(totals.Common), formatHours(totals.Arch)},
	}
	if err := writer.WriteAll(trailer); err != nil {
		return fmt.Errorf("write csv totals: %w", err)
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func formatHours(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
