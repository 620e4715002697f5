package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jwlrep/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. The password is masked.`,
	Example: `
  # Show active configuration
  jwlrep config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		}
		printConfig(os.Stdout, cfg)
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "credentials.server: %s\n", cfg.Credentials.Server)
	fmt.Fprintf(w, "credentials.username: %s\n", cfg.Credentials.Username)
	fmt.Fprintf(w, "credentials.password: %s\n", maskSecret(cfg.Credentials.Password))
	fmt.Fprintf(w, "options.week: %d\n", cfg.Options.Week)
	fmt.Fprintf(w, "options.users: %d\n", len(cfg.Options.Users))
	for i, user := range cfg.Options.Users {
		fmt.Fprintf(w, "options.users[%d]: %s\n", i, user)
	}
	fmt.Fprintf(w, "output.path: %s\n", cfg.Output.Path)
	fmt.Fprintf(w, "output.format: %s\n", valueOrDefault(cfg.Output.Format, "(from extension)"))
	fmt.Fprintf(w, "http.timeout: %s\n", cfg.HTTP.Timeout)
	fmt.Fprintf(w, "http.max_concurrency: %s\n", valueOrDefault(intOrEmpty(cfg.HTTP.MaxConcurrency), "unbounded"))
	fmt.Fprintf(w, "http.requests_per_second: %s\n", valueOrDefault(floatOrEmpty(cfg.HTTP.RequestsPerSecond), "unlimited"))
	fmt.Fprintf(w, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "log.format: %s\n", cfg.Log.Format)
	fmt.Fprintf(w, "journal.path: %s\n", valueOrDefault(cfg.Journal.Path, "(disabled)"))
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func intOrEmpty(value int) string {
	if value <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", value)
}

func floatOrEmpty(value float64) string {
	if value <= 0 {
		return ""
	}
	return fmt.Sprintf("%g", value)
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
