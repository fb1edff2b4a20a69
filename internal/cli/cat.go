package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/slackrtm"
)

var catCmd = &cobra.Command{
	Use:   "cat <config.yaml>",
	Short: "Print every incoming RTM event",
	Long: `Connect with the given config and print each real-time event as it
arrives, prefixed with the local receive time. Useful for checking a token
and seeing which events a workspace sends.`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

func runCat(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := slackrtm.NewClient(slackrtm.NewAPI(settings.Slack.Token, settings.Slack.APIURL))
	conn, err := client.Connect(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styleError.Render("Error:"), err)
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	styled := isTerminal(out)
	self := conn.Self()
	fmt.Fprintf(out, "%s %s (%s)\n", styleLabel.Render("Connected as"), styleValue.Render(self.Name), self.ID)

	return catEvents(ctx, conn, out, styled)
}

type eventSource interface {
	Next(ctx context.Context) (slackrtm.Event, error)
}

func catEvents(ctx context.Context, src eventSource, out io.Writer, styled bool) error {
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, formatEvent(ev, styled))
		if ev.Kind == slackrtm.KindDisconnected {
			fmt.Fprintln(out, styleWarning.Render("connection closed"))
			return ev.Err
		}
	}
}

func formatEvent(ev slackrtm.Event, styled bool) string {
	stamp := ev.Received
	if stamp.IsZero() {
		stamp = time.Now()
	}
	ts := fmt.Sprintf("%d.%06d", stamp.Unix(), stamp.Nanosecond()/1000)
	body := string(ev.Raw)
	if body == "" && ev.Err != nil {
		body = ev.Err.Error()
	}
	if !styled {
		return ts + " " + body
	}

	badge := badgeOther
	switch ev.Kind {
	case slackrtm.KindMessage:
		badge = badgeMessage
	case slackrtm.KindReadMarker:
		badge = badgeMarker
	}
	return styleLabel.Render(ts) + " " + badge.Render(fmt.Sprintf("%-12s", ev.Kind)) + " " + body
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
