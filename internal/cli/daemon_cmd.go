package cli

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a slacktray daemon is running",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running slacktray daemon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalDaemonFile()
	if err != nil {
		return err
	}
	running, info, err := config.IsDaemonRunning(path)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	printStatus(cmd.OutOrStdout(), running, info, time.Now())
	return nil
}

func printStatus(out io.Writer, running bool, info *models.DaemonInfo, now time.Time) {
	if !running || info == nil {
		fmt.Fprintln(out, "Daemon is not running.")
		return
	}

	fmt.Fprintln(out, "Daemon is running.")
	fmt.Fprintf(out, "  %s %d\n", styleLabel.Render("PID:   "), info.PID)
	fmt.Fprintf(out, "  %s %s\n", styleLabel.Render("Config:"), styleValue.Render(info.ConfigPath))
	fmt.Fprintf(out, "  %s %s\n", styleLabel.Render("Uptime:"), now.Sub(info.StartedAt).Truncate(time.Second))
}

func runStop(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalDaemonFile()
	if err != nil {
		return err
	}
	running, info, err := config.IsDaemonRunning(path)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	out := cmd.OutOrStdout()
	if !running || info == nil {
		fmt.Fprintln(out, "Daemon is not running.")
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	// Poll for shutdown (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning(path)
		if err == nil && !stillRunning {
			fmt.Fprintln(out, "Daemon stopped.")
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
