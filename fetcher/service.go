package fetcher

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"jwlrep/jira"
	"jwlrep/worklog"
)

// Outcome is the settled result of one user's fetch. Exactly one of
// Timesheet or Err is meaningful.
type Outcome struct {
	User      string
	Timesheet worklog.UserTimesheet
	Err       error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// FetchAll requests every user's timesheet concurrently and returns one outcome
// per user in the order of users. It waits for every request to settle; a
// failing user never cancels the others. maxConcurrency <= 0 means one
// goroutine per user.
func FetchAll(ctx context.Context, client jira.Client, users []string, period worklog.Period, maxConcurrency int) []Outcome {
	if len(users) == 0 {
		return nil
	}

	workers := len(users)
	if maxConcurrency > 0 && maxConcurrency < workers {
		workers = maxConcurrency
	}

	mapper := iter.Mapper[string, Outcome]{MaxGoroutines: workers}
	return mapper.Map(users, func(user *string) Outcome {
		timesheet, err := client.GetRawTimesheet(ctx, *user, period)
		if err != nil {
			return Outcome{User: *user, Err: &worklog.FetchError{User: *user, Err: err}}
		}
		timesheet.User = *user
		return Outcome{User: *user, Timesheet: timesheet}
	})
}

// Aggregate keeps the successful timesheets in outcome order. Failures are
// logged and dropped. The returned error combines every failure and is nil
// when all users succeeded; it is informational only.
func Aggregate(outcomes []Outcome, logger *zap.Logger) ([]worklog.UserTimesheet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	timesheets := make([]worklog.UserTimesheet, 0, len(outcomes))
	var combined error
	for _, outcome := range outcomes {
		if outcome.OK() {
			timesheets = append(timesheets, outcome.Timesheet)
			continue
		}

		logger.Error("fetch failed",
			zap.String("user", outcome.User),
			zap.Error(causeOf(outcome.Err)),
		)
		combined = multierr.Append(combined, outcome.Err)
	}

	if combined != nil {
		logger.Warn("some users were skipped",
			zap.Int("failed", len(multierr.Errors(combined))),
			zap.Int("succeeded", len(timesheets)),
		)
	}
	return timesheets, combined
}

// FailedUsers lists the users named by the FetchErrors combined in err, in
// the order Aggregate appended them.
func FailedUsers(err error) []string {
	var failed []string
	for _, each := range multierr.Errors(err) {
		var fetchErr *worklog.FetchError
		if errors.As(each, &fetchErr) {
			failed = append(failed, fetchErr.User)
		}
	}
	return failed
}

func causeOf(err error) error {
	var fetchErr *worklog.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Err != nil {
		return fetchErr.Err
	}
	return err
}
