package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/starburst/internal/logging"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "starburst",
		Short: "Starburst maps a program increment's goals and delivery work from JIRA",
		Long: `Starburst walks the JIRA link graph of a program increment, from its goals
through impacts and delivery items down to objectives, and aggregates the result
into a weighted hierarchy for sunburst charts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			if level == "" && format == "" {
				return nil
			}
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			if format == "" {
				format = os.Getenv("LOG_FORMAT")
			}
			logging.SetupLoggerWithFormat(os.Stderr,
				logging.LogLevel(strings.ToLower(level)),
				logging.Format(strings.ToLower(format)))
			return nil
		},
	}

	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().String("env-file", "", "dotenv file to read configuration from (default .env when present)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json (overrides LOG_FORMAT)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTraverseCmd())
	rootCmd.AddCommand(newVersionsCmd())
	rootCmd.AddCommand(newRelationshipsCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
