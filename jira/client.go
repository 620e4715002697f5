package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jwlrep/internal/timeutil"
	"jwlrep/worklog"
)

const (
	rawTimesheetPath = "/rest/timesheet-gadget/1.0/raw-timesheet.json"
	defaultTimeout   = 30 * time.Second
)

// Client defines the timesheet-gadget operations used by the report.
type Client interface {
	GetRawTimesheet(ctx context.Context, user string, period worklog.Period) (worklog.UserTimesheet, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
	// Timeout applies per request when HTTPClient is nil.
	Timeout time.Duration
	// RequestsPerSecond throttles request starts; 0 disables throttling.
	RequestsPerSecond float64
	UserAgent         string
	HTTPClient        httpDoer
}

type HTTPClient struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	limiter    *rate.Limiter
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPClient{
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		limiter:    limiter,
		httpClient: doer,
	}, nil
}

type rawTimesheetResponse struct {
	Worklog *[]rawIssue `json:"worklog"`
}

type rawIssue struct {
	Key     string     `json:"key"`
	Summary string     `json:"summary"`
	Entries []rawEntry `json:"entries"`
}

type rawEntry struct {
	TimeSpent int64  `json:"timeSpent"`
	Author    string `json:"author"`
	Created   int64  `json:"created"`
}

// GetRawTimesheet performs exactly one request for the user's raw timesheet.
func (c *HTTPClient) GetRawTimesheet(ctx context.Context, user string, period worklog.Period) (worklog.UserTimesheet, error) {
	query := url.Values{}
	query.Set("targetUser", user)
	query.Set("startDate", timeutil.FormatDay(period.Start))
	query.Set("endDate", timeutil.FormatDay(period.End))

	var out rawTimesheetResponse
	if err := c.doJSON(ctx, http.MethodGet, rawTimesheetPath+"?"+query.Encode(), &out); err != nil {
		return worklog.UserTimesheet{}, err
	}
	if out.Worklog == nil {
		return worklog.UserTimesheet{}, fmt.Errorf("decode response %s: missing worklog field", rawTimesheetPath)
	}

	return toUserTimesheet(user, *out.Worklog), nil
}

func toUserTimesheet(user string, raw []rawIssue) worklog.UserTimesheet {
	issues := make([]worklog.Issue, 0, len(raw))
	for _, item := range raw {
		entries := make([]worklog.Entry, 0, len(item.Entries))
		for _, entry := range item.Entries {
			entries = append(entries, worklog.Entry{
				TimeSpentSeconds: entry.TimeSpent,
				Author:           entry.Author,
				Created:          time.UnixMilli(entry.Created).UTC(),
			})
		}
		issues = append(issues, worklog.Issue{
			Key:     item.Key,
			Summary: item.Summary,
			Entries: entries,
		})
	}
	return worklog.UserTimesheet{User: user, Issues: issues}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, nil)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.password)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s",
			method,
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}
