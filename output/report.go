package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"jwlrep/internal/classify"
	"jwlrep/worklog"
)

// Headers is the column layout shared by every report format.
var Headers = []string{"Key", "Summary", "Author", "Date", "Spent(h)", "Label", "Project(h)", "Common(h)", "Arch(h)"}

const (
	firstDataRow = 2
	maxSheetName = 31
)

type Row struct {
	Key     string
	Summary string
	Author  string
	Date    string
	Hours   float64
	Label   classify.Label
}

// Project, Common and Arch return the row's contribution to each category column.
func (r Row) Project() float64 { return r.hoursIf(classify.LabelProject) }
func (r Row) Common() float64  { return r.hoursIf(classify.LabelCommon) }
func (r Row) Arch() float64    { return r.hoursIf(classify.LabelArch) }

func (r Row) hoursIf(label classify.Label) float64 {
	if r.Label == label {
		return r.Hours
	}
	return 0
}

// UserSheet is the tabular report of one user. Name is a valid, unique sheet name.
type UserSheet struct {
	User string
	Name string
	Rows []Row
}

type Totals struct {
	Hours   float64
	Project float64
	Common  float64
	Arch    float64
}

func (s UserSheet) Totals() Totals {
	var totals Totals
	for _, row := range s.Rows {
		totals.Hours += row.Hours
		totals.Project += row.Project()
		totals.Common += row.Common()
		totals.Arch += row.Arch()
	}
	return totals
}

// LastDataRow is the 1-based spreadsheet row of the last entry, or the header
// row when the sheet has no entries.
func (s UserSheet) LastDataRow() int {
	return firstDataRow + len(s.Rows) - 1
}

// TotalHoursRow holds the sum of column E.
func (s UserSheet) TotalHoursRow() int {
	return s.LastDataRow() + 1
}

// CategoryTotalsRow holds the sums of columns G, H and I.
func (s UserSheet) CategoryTotalsRow() int {
	return s.LastDataRow() + 3
}

// BuildUserSheets turns timesheets into report rows, keeping user, issue and
// entry order as received.
func BuildUserSheets(timesheets []worklog.UserTimesheet) []UserSheet {
	sheets := make([]UserSheet, 0, len(timesheets))
	used := make(map[string]bool, len(timesheets))
	for _, timesheet := range timesheets {
		sheets = append(sheets, UserSheet{
			User: timesheet.User,
			Name: uniqueSheetName(sanitizeSheetName(timesheet.User), used),
			Rows: buildRows(timesheet),
		})
	}
	return sheets
}

func buildRows(timesheet worklog.UserTimesheet) []Row {
	rows := make([]Row, 0, timesheet.EntryCount())
	for _, issue := range timesheet.Issues {
		label := classify.ClassifySummary(issue.Summary)
		for _, entry := range issue.Entries {
			rows = append(rows, Row{
				Key:     issue.Key,
				Summary: issue.Summary,
				Author:  entry.Author,
				Date:    entry.Day(),
				Hours:   entry.Hours(),
				Label:   label,
			})
		}
	}
	return rows
}

func projectFormula(row int) string {
	return labelFormula(classify.LabelProject, row)
}

func commonFormula(row int) string {
	return labelFormula(classify.LabelCommon, row)
}

func archFormula(row int) string {
	return labelFormula(classify.LabelArch, row)
}

func labelFormula(label classify.Label, row int) string {
	return fmt.Sprintf(`IF(F%d="%s",E%d,0)`, row, label, row)
}

func sumFormula(column string, lastRow int) string {
	return fmt.Sprintf("SUM(%s%d:%s%d)", column, firstDataRow, column, lastRow)
}

var sheetNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"?", "",
	"*", "",
	"[", "(",
	"]", ")",
)

func sanitizeSheetName(name string) string {
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "User"
	}
	return truncateRunes(name, maxSheetName)
}

// uniqueSheetName appends " (n)" until the name is unused. Sheet names compare
// case-insensitively.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
