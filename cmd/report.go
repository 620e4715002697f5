package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"jwlrep/config"
	"jwlrep/reporter"
	"jwlrep/storage"
)

var (
	reportWeek       int
	reportYear       int
	reportUsers      []string
	reportOutput     string
	reportFormat     string
	reportJournal    string
	reportNoProgress bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the week's timesheets and write the per-user report",
	Long: `Fetch the raw timesheet of every configured user for one ISO week and write the report.

Users are fetched concurrently, one request each. A user whose request fails is logged
and left out of the report; the run still succeeds. Sheets follow the configured user order.

Output format can be selected explicitly via --format or inferred from --output extension.
Excel output keeps category columns and totals as formulas; CSV output writes one file per
user with precomputed totals.`,
	Example: `
  # Report the configured week and users
  jwlrep report

  # Override week and users
  jwlrep report --week 10 --user alice --user bob

  # ISO week 1 of 2027 as CSV, one file per user
  jwlrep report --year 2027 --week 1 --output ./week01.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyReportFlags(cmd)

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		opts := reporter.Options{
			Config: cfg,
			Year:   reportYear,
			Logger: log,
		}

		if path := strings.TrimSpace(cfg.Journal.Path); path != "" {
			store, err := storage.OpenSQLite(path)
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Journal = store
		}

		if !reportNoProgress {
			bar := newSpinner("Preparing")
			stop := spin(bar)
			defer func() {
				stop()
				finishBar(bar)
			}()
			opts.OnStage = func(stage string) {
				bar.Describe(stage)
			}
		}

		result, err := reporter.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("\nReport completed. Week: %d-W%02d, Sheets: %d, Format: %s, File: %s\n",
			result.Period.Year, result.Period.Week, len(result.Sheets), result.Format, result.OutputPath)
		printSkipped(os.Stdout, result)
		if result.RunID > 0 {
			fmt.Printf("Run recorded in journal with id %d\n", result.RunID)
		}
		return nil
	},
}

func printSkipped(w io.Writer, result *reporter.Result) {
	if len(result.FailedUsers) == 0 {
		return
	}
	fmt.Fprintf(w, "Skipped users (fetch failed): %s\n", strings.Join(result.FailedUsers, ", "))
	for _, err := range multierr.Errors(result.FetchErr) {
		fmt.Fprintf(w, "  - %v\n", err)
	}
}

// applyReportFlags copies explicitly set flags over the loaded configuration.
func applyReportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("week") {
		viper.Set(config.KeyOptionsWeek, reportWeek)
	}
	if flags.Changed("user") {
		viper.Set(config.KeyOptionsUsers, reportUsers)
	}
	if flags.Changed("output") {
		viper.Set(config.KeyOutputPath, reportOutput)
	}
	if flags.Changed("format") {
		viper.Set(config.KeyOutputFormat, reportFormat)
	}
	if flags.Changed("journal") {
		viper.Set(config.KeyJournalPath, reportJournal)
	}
	if !flags.Changed("year") {
		reportYear = time.Now().Year()
	}
}

func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = bar.RenderBlank()
	return bar
}

// spin advances bar until the returned stop function is called.
func spin(bar *progressbar.ProgressBar) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVarP(&reportWeek, "week", "w", 0, "ISO week number 1-53 (overrides options.week)")
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "ISO week-year (default: current year)")
	reportCmd.Flags().StringArrayVarP(&reportUsers, "user", "u", nil, "User to report, repeatable (overrides options.users)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file path (overrides output.path)")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "Output format: excel|csv (optional, inferred from output extension)")
	reportCmd.Flags().StringVar(&reportJournal, "journal", "", "Path to SQLite run journal (overrides journal.path)")
	reportCmd.Flags().BoolVar(&reportNoProgress, "no-progress", false, "Disable the progress spinner")
}
