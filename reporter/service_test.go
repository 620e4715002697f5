package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jwlrep/config"
	"jwlrep/storage"
	"jwlrep/worklog"
)

type fakeServer struct {
	*httptest.Server
	requests atomic.Int32
}

// newFakeJira serves alice a single [Arch] hour and answers 500 for bob.
func newFakeJira(t *testing.T) *fakeServer {
	t.Helper()

	fake := &fakeServer{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.requests.Add(1)

		username, password, ok := r.BasicAuth()
		if !ok || username != "reporter" || password != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("startDate") != "2026-03-02" || r.URL.Query().Get("endDate") != "2026-03-08" {
			http.Error(w, "unexpected period", http.StatusBadRequest)
			return
		}

		switch r.URL.Query().Get("targetUser") {
		case "alice":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"worklog": []map[string]any{{
					"key":     "ARCH-7",
					"summary": "[Arch] Design review",
					"entries": []map[string]any{
						{"timeSpent": 3600, "author": "alice", "created": time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC).UnixMilli()},
					},
				}},
			})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(fake.Close)
	return fake
}

func testConfig(server, outputPath string) *config.Config {
	return &config.Config{
		Credentials: config.CredentialsConfig{Server: server, Username: "reporter", Password: "secret"},
		Options:     config.OptionsConfig{Week: 10, Users: []string{"alice", "bob"}},
		Output:      config.OutputConfig{Path: outputPath},
		HTTP:        config.HTTPConfig{Timeout: 5 * time.Second},
	}
}

func TestRun_EndToEndSkipsFailedUser(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "report.xlsx")

	journal, err := storage.OpenSQLite(filepath.Join(dir, "jwlrep.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	var stages []string

	result, err := Run(context.Background(), Options{
		Config:  testConfig(server.URL, outputPath),
		Year:    2026,
		Logger:  zap.New(core),
		Journal: journal,
		OnStage: func(stage string) { stages = append(stages, stage) },
		Now:     func() time.Time { return time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := server.requests.Load(); got != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", got)
	}
	if len(result.Sheets) != 1 || result.Sheets[0].User != "alice" {
		t.Fatalf("expected only alice in the report, got %+v", result.Sheets)
	}
	if len(result.FailedUsers) != 1 || result.FailedUsers[0] != "bob" {
		t.Fatalf("expected bob to fail, got %v", result.FailedUsers)
	}
	var fetchErr *worklog.FetchError
	if !errors.As(result.FetchErr, &fetchErr) || fetchErr.User != "bob" {
		t.Fatalf("expected bob's FetchError in result, got %v", result.FetchErr)
	}
	if len(stages) != 2 || stages[0] != StageFetching || stages[1] != StageWriting {
		t.Fatalf("unexpected stages: %v", stages)
	}

	file, err := excelize.OpenFile(outputPath)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer file.Close()

	if sheets := file.GetSheetList(); len(sheets) != 1 || sheets[0] != "alice" {
		t.Fatalf("expected a single alice sheet, got %v", sheets)
	}
	arch, err := file.CalcCellValue("alice", "I5", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("calc arch total: %v", err)
	}
	if value, _ := strconv.ParseFloat(arch, 64); value != 1 {
		t.Fatalf("expected Arch total 1.00, got %q", arch)
	}

	failures := logs.FilterMessage("fetch failed").All()
	if len(failures) != 1 || failures[0].ContextMap()["user"] != "bob" {
		t.Fatalf("expected one fetch failed line for bob, got %v", failures)
	}
	if logs.FilterMessage("using jira").Len() != 1 || logs.FilterMessage("reporting period").Len() != 1 {
		t.Fatalf("expected startup log lines")
	}
	period := logs.FilterMessage("reporting period").All()[0].ContextMap()
	if period["start"] != "2026-03-02" || period["end"] != "2026-03-08" {
		t.Fatalf("unexpected period fields: %v", period)
	}
	if logs.FilterMessage("worklog entry").Len() != 1 {
		t.Fatalf("expected one per-entry debug line")
	}
	if logs.FilterMessage("report written").Len() != 1 {
		t.Fatalf("expected report written line")
	}

	run, err := journal.GetRun(result.RunID)
	if err != nil {
		t.Fatalf("get journaled run: %v", err)
	}
	if run.UsersTotal != 2 || run.UsersFailed != 1 || run.Week != 10 {
		t.Fatalf("unexpected journaled run: %+v", run)
	}
	if run.Users[0].Status != storage.StatusOK || run.Users[0].Hours != 1 || run.Users[0].Entries != 1 {
		t.Fatalf("unexpected alice journal row: %+v", run.Users[0])
	}
	if run.Users[1].Status != storage.StatusFailed || run.Users[1].Error == "" {
		t.Fatalf("unexpected bob journal row: %+v", run.Users[1])
	}
}

func TestRun_InvalidWeekFailsBeforeAnyRequest(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	cfg := testConfig(server.URL, filepath.Join(t.TempDir(), "report.xlsx"))
	cfg.Options.Week = 53

	_, err := Run(context.Background(), Options{Config: cfg, Year: 2025})
	if !errors.Is(err, worklog.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if got := server.requests.Load(); got != 0 {
		t.Fatalf("expected no requests, got %d", got)
	}
}

func TestRun_AllUsersFailingStillWritesEmptyReport(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	outputPath := filepath.Join(t.TempDir(), "report.xlsx")
	cfg := testConfig(server.URL, outputPath)
	cfg.Options.Users = []string{"bob", "carol"}

	result, err := Run(context.Background(), Options{Config: cfg, Year: 2026})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Sheets) != 0 || len(result.FailedUsers) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := len(multierr.Errors(result.FetchErr)); got != 2 {
		t.Fatalf("expected 2 combined fetch errors, got %d", got)
	}
	if _, err := excelize.OpenFile(outputPath); err != nil {
		t.Fatalf("expected a workbook to be written: %v", err)
	}
}

func TestRun_WriteFailureIsWriteError(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	outputPath := filepath.Join(t.TempDir(), "missing", "report.xlsx")

	_, err := Run(context.Background(), Options{Config: testConfig(server.URL, outputPath), Year: 2026})
	var writeErr *worklog.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if writeErr.Path != outputPath {
		t.Fatalf("expected path %s, got %s", outputPath, writeErr.Path)
	}
}

func TestRun_CSVOutput(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	dir := t.TempDir()
	cfg := testConfig(server.URL, filepath.Join(dir, "report.csv"))

	result, err := Run(context.Background(), Options{Config: cfg, Year: 2026})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Format != "csv" {
		t.Fatalf("expected csv format, got %s", result.Format)
	}
	if _, err := os.Stat(filepath.Join(dir, "report_alice.csv")); err != nil {
		t.Fatalf("expected per-user csv file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "report_bob.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no csv file for failed user, got %v", err)
	}
}

type failingRecorder struct{}

func (failingRecorder) RecordRun(storage.Run) (int64, error) {
	return 0, errors.New("disk full")
}

func TestRun_JournalFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	server := newFakeJira(t)
	core, logs := observer.New(zapcore.InfoLevel)

	result, err := Run(context.Background(), Options{
		Config:  testConfig(server.URL, filepath.Join(t.TempDir(), "report.xlsx")),
		Year:    2026,
		Logger:  zap.New(core),
		Journal: failingRecorder{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RunID != 0 {
		t.Fatalf("expected no run id, got %d", result.RunID)
	}
	if logs.FilterMessage("record run failed").Len() != 1 {
		t.Fatalf("expected journal failure to be logged")
	}
}
