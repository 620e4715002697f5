package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage jwlrep configuration file values.",
	Long: `Create, edit, display, and delete the jwlrep configuration file.

The configuration stores the Jira connection and the report options:
- credentials.server / credentials.username / credentials.password
- options.week / options.users
- output.path / output.format
- http.timeout / http.max_concurrency / http.requests_per_second
- log.level / log.format
- journal.path

Every key can be overridden through the environment, e.g. JWLREP_CREDENTIALS_PASSWORD,
also when set in a .env file in the working directory.`,
	Example: `
  # Write jwlrep.toml next to the executable
  jwlrep config create

  # Show active config and source file
  jwlrep config show

  # Open active config in editor (creates example if missing)
  jwlrep config edit

  # Delete active config file
  jwlrep config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
