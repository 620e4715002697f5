package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jwlrep/config"
)

var (
	deleteJournalPath string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the SQLite run journal file",
	Long: `Destructive journal cleanup command.

This command deletes the complete SQLite run journal file. Reports already written are
not touched. Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the journal configured in journal.path (requires interactive confirmation)
  jwlrep delete

  # Delete a specific journal file
  jwlrep delete --journal ./jwlrep.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveJournalPath(deleteJournalPath)
		if path == "" {
			return fmt.Errorf("no journal configured: set journal.path or pass --journal")
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, "journal file", path)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeJournalFile(path); err != nil {
			return err
		}
		fmt.Printf("Deleted journal file: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteJournalPath, "journal", "", "Path to SQLite run journal (default: journal.path)")
}

// resolveJournalPath prefers the flag value over journal.path.
func resolveJournalPath(flagValue string) string {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path
	}
	return strings.TrimSpace(viper.GetString(config.KeyJournalPath))
}

func confirmDeletePrompt(input io.Reader, output io.Writer, what, path string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s %q? Type Y to confirm: ", what, path); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeJournalFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("journal file not found: %s", path)
		}
		return fmt.Errorf("stat journal file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("journal path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete journal file: %w", err)
	}
	return nil
}
