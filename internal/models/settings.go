package models

import "time"

// SlackConfig holds the credentials and API endpoint.
type SlackConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
	APIURL    string `yaml:"api_url"`   // empty = https://slack.com/api/
	UsePrefs  bool   `yaml:"use_prefs"` // merge muted channels + highlight words from Slack prefs
}

// HighlightConfig controls which messages count as highlights.
type HighlightConfig struct {
	Words       []string `yaml:"words"`
	Exclude     []string `yaml:"exclude"`
	IncludeSelf bool     `yaml:"include_self"` // own name and <@ID>
}

// ChannelsConfig lists channels by ID or name (with or without '#').
type ChannelsConfig struct {
	Muted        []string `yaml:"muted"`
	Blacklist    []string `yaml:"blacklist"`
	AutoMarkRead []string `yaml:"auto_mark_read"`
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PerMinute int    `yaml:"per_minute"`
	Burst     int    `yaml:"burst"`
	BodyWidth int    `yaml:"body_width"`
	Icon      string `yaml:"icon"`
}

// SoundsConfig maps notification kinds to sound files.
type SoundsConfig struct {
	Player        string `yaml:"player"`
	Highlight     string `yaml:"highlight"`
	DirectMessage string `yaml:"direct_message"`
}

// KeepaliveConfig holds the probe and acknowledgment thresholds.
type KeepaliveConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
}

// MetricsConfig holds the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
}

// Settings is the daemon configuration file.
type Settings struct {
	Version       int                 `yaml:"version"`
	Slack         SlackConfig         `yaml:"slack"`
	Highlight     HighlightConfig     `yaml:"highlight"`
	Channels      ChannelsConfig      `yaml:"channels"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Sounds        SoundsConfig        `yaml:"sounds"`
	Keepalive     KeepaliveConfig     `yaml:"keepalive"`
	PollInterval  time.Duration       `yaml:"poll_interval"`
	RestartDelay  time.Duration       `yaml:"restart_delay"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Slack: SlackConfig{
			UsePrefs: true,
		},
		Highlight: HighlightConfig{
			IncludeSelf: true,
		},
		Notifications: NotificationsConfig{
			Enabled:   true,
			PerMinute: 20,
			Burst:     5,
			BodyWidth: 200,
		},
		Sounds: SoundsConfig{
			Player: "paplay",
		},
		Keepalive: KeepaliveConfig{
			PingInterval: 30 * time.Second,
			PongTimeout:  60 * time.Second,
		},
		PollInterval: 200 * time.Millisecond,
		RestartDelay: 5 * time.Second,
	}
}
