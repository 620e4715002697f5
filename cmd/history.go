package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"jwlrep/storage"
)

var (
	historyJournalPath string
	historyLimit       int
	historyRunID       int64
	historyPruneBefore string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent report runs from the SQLite journal",
	Long: `List report runs recorded in the SQLite run journal.

Only run metadata is journaled: period, output file and the per-user outcome
(status, error, entry count, total hours). Fetched worklogs are never stored.`,
	Example: `
  # Show the last 20 runs
  jwlrep history

  # Show per-user outcome of run 7
  jwlrep history --run 7

  # Remove runs started before 2026-01-01
  jwlrep history --prune-before 2026-01-01
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveJournalPath(historyJournalPath)
		if path == "" {
			return fmt.Errorf("no journal configured: set journal.path or pass --journal")
		}

		store, err := storage.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer store.Close()

		if historyPruneBefore != "" {
			cutoff, err := time.Parse("2006-01-02", historyPruneBefore)
			if err != nil {
				return fmt.Errorf("invalid --prune-before %q (expected YYYY-MM-DD): %w", historyPruneBefore, err)
			}
			deleted, err := store.DeleteRunsBefore(cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Pruned runs: %d\n", deleted)
			return nil
		}

		if historyRunID > 0 {
			run, err := store.GetRun(historyRunID)
			if err != nil {
				return err
			}
			return printRunDetail(os.Stdout, run)
		}

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		return printRuns(os.Stdout, runs)
	},
}

func printRuns(w io.Writer, runs []storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tAGE\tWEEK\tPERIOD\tUSERS\tFAILED\tOUTPUT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d-W%02d\t%s..%s\t%d\t%d\t%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			humanize.Time(run.StartedAt),
			run.Year, run.Week,
			run.PeriodStart, run.PeriodEnd,
			run.UsersTotal, run.UsersFailed,
			run.OutputPath,
		)
	}
	return tw.Flush()
}

func printRunDetail(w io.Writer, run storage.Run) error {
	fmt.Fprintf(w, "Run %d: %d-W%02d (%s..%s), %s output %s\n",
		run.ID, run.Year, run.Week, run.PeriodStart, run.PeriodEnd, run.Format, run.OutputPath)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSER\tSTATUS\tENTRIES\tHOURS\tERROR")
	for _, user := range run.Users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%s\n",
			user.Position+1, user.User, user.Status, user.Entries, user.Hours, user.Error)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyJournalPath, "journal", "", "Path to SQLite run journal (default: journal.path)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 = all)")
	historyCmd.Flags().Int64Var(&historyRunID, "run", 0, "Show per-user outcome of one run")
	historyCmd.Flags().StringVar(&historyPruneBefore, "prune-before", "", "Delete runs started before this date (YYYY-MM-DD)")
}
