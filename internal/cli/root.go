// Package cli implements the slacktray CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var foreground bool

var rootCmd = &cobra.Command{
	Use:   "slacktray <config.yaml>",
	Short: "Slack unread and highlight status in the system tray",
	Long: `slacktray keeps a real-time connection to Slack, tracks read markers per
channel and shows a tray icon: red for highlights, yellow for unread
messages in unmuted channels, green when everything is read.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(args[0], foreground)
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run without a system tray, logging status changes")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
