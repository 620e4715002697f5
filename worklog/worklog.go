package worklog

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration marks malformed or out-of-range run parameters.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Entry is one logged time span as returned by the timesheet endpoint.
type Entry struct {
	TimeSpentSeconds int64
	Author           string
	Created          time.Time
}

// Hours returns the logged duration in hours.
func (e Entry) Hours() float64 {
	return float64(e.TimeSpentSeconds) / 3600.0
}

// Day returns the UTC calendar day of the entry as YYYY-MM-DD.
func (e Entry) Day() string {
	return e.Created.UTC().Format("2006-01-02")
}

// Issue owns the entries logged against one work item.
type Issue struct {
	Key     string
	Summary string
	Entries []Entry
}

// UserTimesheet is the fetched data of one user for the reporting period.
type UserTimesheet struct {
	User   string
	Issues []Issue
}

// EntryCount returns the number of entries across all issues.
func (t UserTimesheet) EntryCount() int {
	count := 0
	for _, issue := range t.Issues {
		count += len(issue.Entries)
	}
	return count
}

// TotalSeconds returns the summed duration across all issues.
func (t UserTimesheet) TotalSeconds() int64 {
	var total int64
	for _, issue := range t.Issues {
		for _, entry := range issue.Entries {
			total += entry.TimeSpentSeconds
		}
	}
	return total
}

// Period is the Monday..Sunday range of one ISO week.
type Period struct {
	Year  int
	Week  int
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return fmt.Sprintf("%d-W%02d (%s..%s)", p.Year, p.Week, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// FetchError is the failure of a single user's timesheet fetch.
type FetchError struct {
	User string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch timesheet for %q: %v", e.User, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError means the report artifact could not be produced.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
