/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jwlrep/config"
	"jwlrep/internal/logger"
)

const configName = "jwlrep"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jwlrep",
	Short: "Build weekly per-user worklog reports from Jira timesheets.",
	Long: `
**********************************************
*           JIRA WORKLOG REPORT              *
**********************************************

This CLI fetches the raw timesheet of every configured user for one ISO week
from a Jira server (timesheet-gadget endpoint), labels each worklog entry by
its issue summary, and writes one sheet per user with formula-based totals.

Labels:
- [Common]    -> Common
- [Arch]      -> Arch
- Overtime    -> Overtime
- Vacation    -> Vacation
- Sick leaves -> Sick leaves
- otherwise   -> 2520 (project)
`,
	Example: `
  # Create configuration file
  jwlrep config create

  # Report the configured week into report.xlsx
  jwlrep report

  # Report week 10 for two users into a custom file
  jwlrep report --week 10 --user alice --user bob --output ./week10.xlsx

  # Re-evaluate the totals of an existing report
  jwlrep verify ./week10.xlsx

  # Show recent runs from the journal
  jwlrep history --journal ./jwlrep.db
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: jwlrep.{toml,yaml} next to the executable, then $HOME, then .)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (overrides log.level)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console|json (overrides log.format)")

	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig loads .env, then the config file, then JWLREP_* environment overrides.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring unreadable .env file:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configSearchPaths() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName(configName)
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: jwlrep config create")
	}
}

// configSearchPaths lists the executable's directory, $HOME and the working
// directory, skipping the ones that cannot be resolved.
func configSearchPaths() []string {
	paths := make([]string, 0, 3)
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return append(paths, ".")
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat), os.Stderr)
}
