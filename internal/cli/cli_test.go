package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/slacktray/slacktray/internal/models"
	"github.com/slacktray/slacktray/internal/slackrtm"
)

func TestRootRequiresConfigArgument(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: []string{}},
		{name: "two arguments", args: []string{"a.yaml", "b.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)
			defer rootCmd.SetArgs(nil)

			if err := rootCmd.Execute(); err == nil {
				t.Fatal("Execute() expected error")
			}
			if !strings.Contains(out.String(), "Usage:") {
				t.Errorf("output missing usage:\n%s", out.String())
			}
		})
	}
}

func TestVersionOutput(t *testing.T) {
	out := formatVersion()
	for _, want := range []string{"slacktray", "OS/Arch", "Go"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatEventPlain(t *testing.T) {
	raw := `{"type":"message","channel":"C1","ts":"1.0"}`
	ev := slackrtm.Event{
		Kind:     slackrtm.KindMessage,
		Raw:      json.RawMessage(raw),
		Received: time.Unix(1700000000, 250000000),
	}

	if got, want := formatEvent(ev, false), "1700000000.250000 "+raw; got != want {
		t.Errorf("formatEvent() = %q, want %q", got, want)
	}
}

type fakeSource struct {
	events []slackrtm.Event
}

func (f *fakeSource) Next(ctx context.Context) (slackrtm.Event, error) {
	if len(f.events) == 0 {
		<-ctx.Done()
		return slackrtm.Event{}, ctx.Err()
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func TestCatEventsStopsOnDisconnect(t *testing.T) {
	src := &fakeSource{events: []slackrtm.Event{
		{Kind: slackrtm.KindHello, Raw: json.RawMessage(`{"type":"hello"}`)},
		{Kind: slackrtm.KindDisconnected, Err: errors.New("EOF")},
	}}

	var out bytes.Buffer
	err := catEvents(context.Background(), src, &out, false)
	if err == nil || err.Error() != "EOF" {
		t.Errorf("catEvents() = %v, want EOF", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasSuffix(lines[0], `{"type":"hello"}`) || !strings.HasSuffix(lines[1], "EOF") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCatEventsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := catEvents(ctx, &fakeSource{}, &bytes.Buffer{}, false); err != nil {
		t.Errorf("catEvents() = %v, want nil on cancel", err)
	}
}

func TestPrintStatus(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	info := &models.DaemonInfo{Version: 1, PID: 4242, ConfigPath: "/home/me/slack.yaml", StartedAt: started}

	tests := []struct {
		name    string
		running bool
		info    *models.DaemonInfo
		want    []string
	}{
		{name: "not running", running: false, info: nil, want: []string{"Daemon is not running."}},
		{name: "stale info", running: false, info: info, want: []string{"Daemon is not running."}},
		{name: "running", running: true, info: info, want: []string{"Daemon is running.", "4242", "/home/me/slack.yaml", "1h30m0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printStatus(&out, tt.running, tt.info, started.Add(90*time.Minute))
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}
