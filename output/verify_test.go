package output

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"jwlrep/worklog"
)

func TestVerifyWorkbook_ReportWrittenByExcelWriterIsConsistent(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, []worklog.UserTimesheet{
		{
			User: "alice",
			Issues: []worklog.Issue{
				{Key: "A-1", Summary: "[Arch] Review", Entries: []worklog.Entry{{TimeSpentSeconds: 3600, Author: "alice", Created: at(2, 9)}}},
				{Key: "C-1", Summary: "[Common] Sync", Entries: []worklog.Entry{{TimeSpentSeconds: 1800, Author: "alice", Created: at(2, 11)}}},
				{Key: "O-1", Summary: "Overtime", Entries: []worklog.Entry{{TimeSpentSeconds: 7200, Author: "alice", Created: at(7, 11)}}},
			},
		},
		{User: "bob"},
	})

	result, err := VerifyWorkbook(path)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected consistent workbook, got %+v", result.Sheets)
	}
	if len(result.Sheets) != 2 {
		t.Fatalf("expected 2 checked sheets, got %d", len(result.Sheets))
	}

	alice := result.Sheets[0]
	if alice.Entries != 3 {
		t.Fatalf("expected 3 entries, got %d", alice.Entries)
	}
	if alice.Actual.Hours != 3.5 || alice.Actual.Arch != 1 || alice.Actual.Common != 0.5 || alice.Actual.Project != 0 {
		t.Fatalf("unexpected evaluated totals: %+v", alice.Actual)
	}
	if result.Sheets[1].Entries != 0 {
		t.Fatalf("expected no entries for bob")
	}
}

func TestVerifyWorkbook_EmptyIssueKeyDoesNotEndScan(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, []worklog.UserTimesheet{{
		User: "alice",
		Issues: []worklog.Issue{
			{Key: "", Summary: "[Common] Untracked", Entries: []worklog.Entry{{TimeSpentSeconds: 1800, Author: "alice", Created: at(2, 9)}}},
			{Key: "A-1", Summary: "[Arch] Review", Entries: []worklog.Entry{{TimeSpentSeconds: 3600, Author: "alice", Created: at(3, 9)}}},
		},
	}})

	result, err := VerifyWorkbook(path)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected consistent workbook, got %+v", result.Sheets)
	}
	if got := result.Sheets[0].Entries; got != 2 {
		t.Fatalf("expected both rows to be scanned, got %d", got)
	}
	if got := result.Sheets[0].Actual.Common; got != 0.5 {
		t.Fatalf("expected Common total 0.5, got %v", got)
	}
}

func TestVerifyWorkbook_DetectsTamperedTotals(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, []worklog.UserTimesheet{{
		User: "alice",
		Issues: []worklog.Issue{
			{Key: "C-1", Summary: "[Common] Sync", Entries: []worklog.Entry{{TimeSpentSeconds: 3600, Author: "alice", Created: at(2, 9)}}},
		},
	}})

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := file.SetCellFormula("alice", "H5", "SUM(G2:G2)"); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	tampered := filepath.Join(t.TempDir(), "tampered.xlsx")
	if err := file.SaveAs(tampered); err != nil {
		t.Fatalf("save: %v", err)
	}
	file.Close()

	result, err := VerifyWorkbook(tampered)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.OK() {
		t.Fatalf("expected mismatch to be reported")
	}
	mismatches := result.Sheets[0].Mismatches
	if len(mismatches) != 1 || !strings.HasPrefix(mismatches[0], "common H5") {
		t.Fatalf("unexpected mismatches: %v", mismatches)
	}
}

func TestVerifyWorkbook_SkipsForeignSheets(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, nil)
	result, err := VerifyWorkbook(path)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(result.Sheets) != 0 || len(result.Skipped) != 1 {
		t.Fatalf("expected the empty default sheet to be skipped: %+v", result)
	}
	if !result.OK() {
		t.Fatalf("expected empty result to be OK")
	}
}

func TestVerifyWorkbook_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := VerifyWorkbook(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
