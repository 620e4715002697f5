package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jwlrep/config"
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write an example jwlrep.toml next to the executable.",
	Long: `Write an example configuration file.

By default the file is jwlrep.toml in the directory of the jwlrep executable, which is
the first place jwlrep looks for its configuration. --configFile selects another path;
its extension (.toml, .yaml or .yml) selects the template format.

Nothing is written when a configuration file is already in use or the target exists.`,
	Example: `
  # Write jwlrep.toml next to the executable
  jwlrep config create

  # Write a YAML config to a custom location
  jwlrep --configFile ~/jwlrep.yaml config create
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, created, err := createConfig(cfgFile, viper.ConfigFileUsed(), os.Executable)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Config file already exists at: %s\n", path)
			return nil
		}
		fmt.Printf("Example config written to: %s\n", path)
		fmt.Println("Set credentials.password there or export JWLREP_CREDENTIALS_PASSWORD.")
		return nil
	},
}

// createConfig writes the example template. An explicit path wins; otherwise a
// config already in use is left alone and the target is jwlrep.toml beside
// the executable.
func createConfig(flagPath, inUse string, executable func() (string, error)) (string, bool, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		if inUse != "" {
			return inUse, false, nil
		}
		var err error
		if path, err = defaultConfigPath(executable); err != nil {
			return "", false, err
		}
	}

	created, err := writeConfigTemplate(path)
	if err != nil {
		return "", false, err
	}
	return path, created, nil
}

func defaultConfigPath(executable func() (string, error)) (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), configName+".toml"), nil
}

// writeConfigTemplate writes the example matching path's format unless path
// already exists. The file holds credentials, so it is private to the owner.
func writeConfigTemplate(path string) (bool, error) {
	fileType, err := config.FileType(path)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("check config file %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.Example(fileType)), 0o600); err != nil {
		return false, fmt.Errorf("write example config: %w", err)
	}
	return true, nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
}
