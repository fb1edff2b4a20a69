package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := writeConfig(t, "slack:\n  token: xoxp-test\n")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Slack.Token != "xoxp-test" {
		t.Errorf("Token = %q, want %q", s.Slack.Token, "xoxp-test")
	}
	if s.Keepalive.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", s.Keepalive.PingInterval)
	}
	if s.Keepalive.PongTimeout != 60*time.Second {
		t.Errorf("PongTimeout = %v, want 60s", s.Keepalive.PongTimeout)
	}
	if s.PollInterval != 200*time.Millisecond {
		t.Errorf("PollInterval = %v, want 200ms", s.PollInterval)
	}
	if !s.Highlight.IncludeSelf || !s.Notifications.Enabled || !s.Slack.UsePrefs {
		t.Errorf("boolean defaults not applied: %+v", s)
	}
	if s.Sounds.Player != "paplay" {
		t.Errorf("Player = %q, want paplay", s.Sounds.Player)
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := writeConfig(t, `
slack:
  token: xoxp-test
highlight:
  words: [deploy, outage]
  exclude: [deploybot]
  include_self: false
channels:
  muted: ["#random"]
  auto_mark_read: [C0LOGS]
keepalive:
  ping_interval: 10s
  pong_timeout: 25s
sounds:
  highlight: /tmp/ping.wav
`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if len(s.Highlight.Words) != 2 || s.Highlight.IncludeSelf {
		t.Errorf("highlight = %+v", s.Highlight)
	}
	if s.Keepalive.PingInterval != 10*time.Second || s.Keepalive.PongTimeout != 25*time.Second {
		t.Errorf("keepalive = %+v", s.Keepalive)
	}
	if s.Sounds.Highlight != "/tmp/ping.wav" || s.Sounds.Player != "paplay" {
		t.Errorf("sounds = %+v", s.Sounds)
	}
	if s.Notifications.PerMinute != 20 {
		t.Errorf("untouched section lost its default: %+v", s.Notifications)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Setenv(TokenEnv, "")
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing token", body: "highlight:\n  words: [x]\n", wantErr: "no Slack token"},
		{name: "empty file", body: "", wantErr: "no Slack token"},
		{name: "unknown key", body: "slack:\n  tokne: x\n", wantErr: "tokne"},
		{name: "bad duration", body: "slack:\n  token: x\nkeepalive:\n  ping_interval: soon\n", wantErr: "failed to parse"},
		{name: "pong shorter than ping", body: "slack:\n  token: x\nkeepalive:\n  ping_interval: 30s\n  pong_timeout: 10s\n", wantErr: "pong_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadSettings() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadSettings() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMissingTokenIsSentinel(t *testing.T) {
	t.Setenv(TokenEnv, "")
	_, err := LoadSettings(writeConfig(t, "version: 1\n"))
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}
}

func TestTokenSources(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenPath, []byte("xoxp-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("token file", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		s, err := LoadSettings(writeConfig(t, "slack:\n  token_file: "+tokenPath+"\n"))
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.Slack.Token != "xoxp-from-file" {
			t.Errorf("Token = %q", s.Slack.Token)
		}
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(TokenEnv, "xoxp-from-env")
		s, err := LoadSettings(writeConfig(t, "slack:\n  token: xoxp-inline\n"))
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.Slack.Token != "xoxp-from-env" {
			t.Errorf("Token = %q", s.Slack.Token)
		}
	})
}

func TestRedactedHidesToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	s, err := LoadSettings(writeConfig(t, "slack:\n  token: xoxp-secret\n"))
	if err != nil {
		t.Fatal(err)
	}
	if out := Redacted(s); strings.Contains(out, "xoxp-secret") {
		t.Errorf("Redacted() leaked token: %s", out)
	}
}

func TestChannelMatcher(t *testing.T) {
	m := NewChannelMatcher([]string{"C0123", "#Random"}, []string{"ops"})

	tests := []struct {
		id, name string
		expected bool
	}{
		{"C0123", "", true},
		{"C9999", "random", true},
		{"C9999", "#random", true},
		{"C9999", "OPS", true},
		{"C9999", "general", false},
		{"C9999", "", false},
	}

	for _, tt := range tests {
		if got := m.Match(tt.id, tt.name); got != tt.expected {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.id, tt.name, got, tt.expected)
		}
	}
	if NewChannelMatcher().Match("C1", "general") {
		t.Error("empty matcher should match nothing")
	}
}

func TestClaimDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), DaemonFileName)

	release, err := claimDaemonAt(path, "/etc/slacktray.yaml")
	if err != nil {
		t.Fatalf("claimDaemonAt() error = %v", err)
	}
	info, err := LoadDaemonInfo(path)
	if err != nil || info == nil {
		t.Fatalf("LoadDaemonInfo() = %v, %v", info, err)
	}
	if info.PID != os.Getpid() || info.ConfigPath != "/etc/slacktray.yaml" {
		t.Errorf("daemon info = %+v", info)
	}

	// Our own PID does not count as another running daemon.
	release2, err := claimDaemonAt(path, "/etc/slacktray.yaml")
	if err != nil {
		t.Fatalf("second claim by same process error = %v", err)
	}
	release2()
	release()
	if FileExists(path) {
		t.Error("release did not remove daemon file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/sounds/ping.wav")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "sounds/ping.wav"); got != want {
		t.Errorf("ExpandPath() = %q, want %q", got, want)
	}
	if got, _ := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(abs) = %q", got)
	}
}
