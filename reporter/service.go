package reporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jwlrep/config"
	"jwlrep/fetcher"
	"jwlrep/internal/timeutil"
	"jwlrep/jira"
	"jwlrep/output"
	"jwlrep/storage"
	"jwlrep/worklog"
)

const (
	StageFetching = "fetching timesheets"
	StageWriting  = "writing report"
)

// RunRecorder journals run metadata. *storage.SQLiteStore satisfies it.
type RunRecorder interface {
	RecordRun(run storage.Run) (int64, error)
}

type Options struct {
	Config *config.Config
	// Year is the ISO week-year of Config.Options.Week.
	Year   int
	Client jira.Client
	Logger *zap.Logger
	// Journal is optional.
	Journal RunRecorder
	// OnStage is called before each long-running stage.
	OnStage func(stage string)
	Now     func() time.Time
}

type Result struct {
	Period      worklog.Period
	OutputPath  string
	Format      string
	Sheets      []output.UserSheet
	FailedUsers []string
	// FetchErr combines the per-user FetchErrors; nil when every fetch succeeded.
	FetchErr    error
	RunID       int64
}

// Run executes one report: compute the period, fetch every user, keep the
// successes in configured order and write the report. Fetch failures are
// logged and never fail the run; invalid configuration and write failures do.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: missing configuration", worklog.ErrInvalidConfiguration)
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now()

	year := opts.Year
	if year == 0 {
		year = startedAt.Year()
	}
	period, err := timeutil.ISOWeekPeriod(year, cfg.Options.Week)
	if err != nil {
		return nil, err
	}

	format := output.FormatForPath(cfg.Output.Format, cfg.Output.Path)
	writer, err := output.WriterForFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", worklog.ErrInvalidConfiguration, err)
	}

	client := opts.Client
	if client == nil {
		client, err = NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", worklog.ErrInvalidConfiguration, err)
		}
	}

	logger.Info("using jira", zap.String("server", cfg.Credentials.Server))
	logger.Info("reporting period",
		zap.Int("year", period.Year),
		zap.Int("week", period.Week),
		zap.String("start", timeutil.FormatDay(period.Start)),
		zap.String("end", timeutil.FormatDay(period.End)),
	)

	stage(opts.OnStage, StageFetching)
	outcomes := fetcher.FetchAll(ctx, client, cfg.Options.Users, period, cfg.HTTP.MaxConcurrency)
	timesheets, fetchErr := fetcher.Aggregate(outcomes, logger)

	sheets := output.BuildUserSheets(timesheets)
	logEntries(logger, sheets)

	stage(opts.OnStage, StageWriting)
	if err := writer.Write(cfg.Output.Path, sheets); err != nil {
		return nil, &worklog.WriteError{Path: cfg.Output.Path, Err: err}
	}
	logger.Info("report written",
		zap.String("path", cfg.Output.Path),
		zap.String("format", format),
		zap.Int("sheets", len(sheets)),
	)

	result := &Result{
		Period:      period,
		OutputPath:  cfg.Output.Path,
		Format:      format,
		Sheets:      sheets,
		FailedUsers: fetcher.FailedUsers(fetchErr),
		FetchErr:    fetchErr,
	}

	if opts.Journal != nil {
		id, err := opts.Journal.RecordRun(journalRun(startedAt, result, outcomes))
		if err != nil {
			logger.Warn("record run failed", zap.Error(err))
		} else {
			result.RunID = id
		}
	}

	return result, nil
}

// NewClient builds the single timesheet client shared by every fetch of a run.
func NewClient(cfg *config.Config) (*jira.HTTPClient, error) {
	return jira.NewClient(jira.ClientConfig{
		BaseURL:           cfg.Credentials.Server,
		Username:          cfg.Credentials.Username,
		Password:          cfg.Credentials.Password,
		Timeout:           cfg.HTTP.Timeout,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		UserAgent:         "jwlrep",
	})
}

func stage(fn func(string), name string) {
	if fn != nil {
		fn(name)
	}
}

func logEntries(logger *zap.Logger, sheets []output.UserSheet) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, sheet := range sheets {
		for _, row := range sheet.Rows {
			logger.Debug("worklog entry",
				zap.String("key", row.Key),
				zap.String("summary", row.Summary),
				zap.String("user", row.Author),
				zap.String("date", row.Date),
				zap.String("spent_h", fmt.Sprintf("%.2f", row.Hours)),
				zap.String("label", string(row.Label)),
			)
		}
	}
}

func journalRun(startedAt time.Time, result *Result, outcomes []fetcher.Outcome) storage.Run {
	sheetByUser := make(map[string]output.UserSheet, len(result.Sheets))
	for _, sheet := range result.Sheets {
		sheetByUser[sheet.User] = sheet
	}

	users := make([]storage.RunUser, 0, len(outcomes))
	for i, outcome := range outcomes {
		user := storage.RunUser{Position: i, User: outcome.User, Status: storage.StatusOK}
		if !outcome.OK() {
			user.Status = storage.StatusFailed
			user.Error = causeText(outcome.Err)
		} else if sheet, ok := sheetByUser[outcome.User]; ok {
			user.Entries = len(sheet.Rows)
			user.Hours = sheet.Totals().Hours
		}
		users = append(users, user)
	}

	return storage.Run{
		StartedAt:   startedAt,
		Year:        result.Period.Year,
		Week:        result.Period.Week,
		PeriodStart: timeutil.FormatDay(result.Period.Start),
		PeriodEnd:   timeutil.FormatDay(result.Period.End),
		OutputPath:  result.OutputPath,
		Format:      result.Format,
		UsersTotal:  len(outcomes),
		UsersFailed: len(result.FailedUsers),
		Users:       users,
	}
}

func causeText(err error) string {
	var fetchErr *worklog.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Err != nil {
		return fetchErr.Err.Error()
	}
	return err.Error()
}
