package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/slacktray/slacktray/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), formatVersion())
	},
}

func formatVersion() string {
	return fmt.Sprintf("%s %s (%s)\n", styleBrand.Render("slacktray"), styleVersion.Render(buildinfo.Version), buildinfo.Codename) +
		versionLine("Commit", buildinfo.CommitHash) +
		versionLine("Built", buildinfo.BuildDate) +
		versionLine("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH) +
		versionLine("Go", runtime.Version())
}

func versionLine(label, value string) string {
	return fmt.Sprintf("  %s %s\n", styleLabel.Render(label+":"), styleValue.Render(value))
}
