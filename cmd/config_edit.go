package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jwlrep/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor and validate it afterwards.",
	Long: `Open the active jwlrep config file in $VISUAL, $EDITOR or vi, in that order.

Without an active file the example jwlrep.toml is written next to the executable first.
When the editor exits, the file is parsed as TOML or YAML according to its extension
and checked the same way "jwlrep report" checks it.`,
	Example: `
  # Edit active config
  jwlrep config edit

  # Edit a specific file with a custom editor
  EDITOR="code --wait" jwlrep --configFile ./jwlrep.yaml config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := editTarget(cfgFile, viper.ConfigFileUsed(), os.Executable)
		if err != nil {
			return err
		}

		created, err := writeConfigTemplate(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Example written to: %s\n", path)
		}

		editor := editorCommand(os.Getenv("VISUAL"), os.Getenv("EDITOR"), path)
		editor.Stdin = os.Stdin
		editor.Stdout = os.Stdout
		editor.Stderr = os.Stderr
		if err := editor.Run(); err != nil {
			return fmt.Errorf("run editor: %w", err)
		}

		cfg, err := validateConfigFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("Configuration saved and validated: %s (week %d, %d users)\n", path, cfg.Options.Week, len(cfg.Options.Users))
		return nil
	},
}

// editTarget picks the file to edit: --configFile, then the config in use,
// then jwlrep.toml beside the executable.
func editTarget(flagPath, inUse string, executable func() (string, error)) (string, error) {
	if path := strings.TrimSpace(flagPath); path != "" {
		return path, nil
	}
	if inUse != "" {
		return inUse, nil
	}
	return defaultConfigPath(executable)
}

func validateConfigFile(path string) (*config.Config, error) {
	fileType, err := config.FileType(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edited config: %w", err)
	}
	cfg, err := config.ValidateContent(content, fileType)
	if err != nil {
		return nil, fmt.Errorf("config validation failed in %s: %w", path, err)
	}
	return cfg, nil
}

// editorCommand splits the first non-blank of visual and editor into program
// and arguments and appends path. vi is the fallback.
func editorCommand(visual, editor, path string) *exec.Cmd {
	fields := []string{"vi"}
	for _, candidate := range []string{visual, editor} {
		if parts := strings.Fields(candidate); len(parts) > 0 {
			fields = parts
			break
		}
	}
	return exec.Command(fields[0], append(fields[1:], path)...)
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
