package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jwlrep/output"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <report.xlsx>",
	Short: "Re-evaluate the totals of an Excel report",
	Long: `Open an Excel report, recompute the per-label sums from its rows and compare them
with what the total formulas evaluate to.

Sheets without the report header are skipped. The command fails when any sheet disagrees.`,
	Example: `
  # Check a report written by "jwlrep report"
  jwlrep verify ./report.xlsx
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := output.VerifyWorkbook(args[0])
		if err != nil {
			return err
		}
		printVerifyResult(os.Stdout, result)
		if !result.OK() {
			return fmt.Errorf("report %s has inconsistent totals", args[0])
		}
		return nil
	},
}

func printVerifyResult(w io.Writer, result output.VerifyResult) {
	for _, sheet := range result.Sheets {
		status := "OK"
		if !sheet.OK() {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "%-31s %-8s entries=%d total=%.2f project=%.2f common=%.2f arch=%.2f\n",
			sheet.Name, status, sheet.Entries,
			sheet.Actual.Hours, sheet.Actual.Project, sheet.Actual.Common, sheet.Actual.Arch)
		for _, mismatch := range sheet.Mismatches {
			fmt.Fprintf(w, "  - %s\n", mismatch)
		}
	}
	for _, name := range result.Skipped {
		fmt.Fprintf(w, "%-31s skipped (no report header)\n", name)
	}
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
