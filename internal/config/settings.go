package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/slacktray/slacktray/internal/models"
)

// TokenEnv overrides slack.token when set.
const TokenEnv = "SLACKTRAY_TOKEN"

// ErrMissingToken is returned when no Slack token could be resolved.
var ErrMissingToken = errors.New("no Slack token configured (slack.token, slack.token_file or " + TokenEnv + ")")

// LoadSettings loads the daemon configuration from path on top of the
// defaults, resolves the token and validates the result.
func LoadSettings(path string) (*models.Settings, error) {
	settings := models.NewSettings()
	if err := LoadYAML(path, settings); err != nil {
		return nil, err
	}
	if err := ResolveToken(settings); err != nil {
		return nil, err
	}
	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return settings, nil
}

// ResolveToken fills Slack.Token from the environment or token file.
func ResolveToken(s *models.Settings) error {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		s.Slack.Token = env
		return nil
	}
	if s.Slack.Token != "" || s.Slack.TokenFile == "" {
		s.Slack.Token = strings.TrimSpace(s.Slack.Token)
		return nil
	}
	path, err := ExpandPath(s.Slack.TokenFile)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read token file %s: %w", path, err)
	}
	s.Slack.Token = strings.TrimSpace(string(data))
	return nil
}

// Validate checks the settings for values the daemon cannot run with.
func Validate(s *models.Settings) error {
	var problems []string

	if s.Slack.Token == "" {
		return ErrMissingToken
	}
	if s.Keepalive.PingInterval <= 0 {
		problems = append(problems, "keepalive.ping_interval must be positive")
	}
	if s.Keepalive.PongTimeout <= s.Keepalive.PingInterval {
		problems = append(problems, "keepalive.pong_timeout must be longer than keepalive.ping_interval")
	}
	if s.PollInterval <= 0 || s.PollInterval > 5*time.Second {
		problems = append(problems, "poll_interval must be between 0 and 5s")
	}
	if s.RestartDelay <= 0 {
		problems = append(problems, "restart_delay must be positive")
	}
	if s.Notifications.Enabled {
		if s.Notifications.PerMinute <= 0 {
			problems = append(problems, "notifications.per_minute must be positive")
		}
		if s.Notifications.Burst <= 0 {
			problems = append(problems, "notifications.burst must be positive")
		}
	}
	if s.Notifications.BodyWidth < 0 {
		problems = append(problems, "notifications.body_width must not be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns a one-line summary of the settings safe for logs.
func Redacted(s *models.Settings) string {
	return fmt.Sprintf("token=%s words=%d exclude=%d muted=%d blacklist=%d auto_mark_read=%d notifications=%v ping=%s pong_timeout=%s metrics=%q",
		redactString(s.Slack.Token),
		len(s.Highlight.Words),
		len(s.Highlight.Exclude),
		len(s.Channels.Muted),
		len(s.Channels.Blacklist),
		len(s.Channels.AutoMarkRead),
		s.Notifications.Enabled,
		s.Keepalive.PingInterval,
		s.Keepalive.PongTimeout,
		s.Metrics.Listen,
	)
}

func redactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "***REDACTED*** (len=" + strconv.Itoa(len(value)) + ")"
}
