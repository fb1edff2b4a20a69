package models

import "time"

// DaemonInfo identifies the running daemon.
// This corresponds to ~/.slacktray/daemon.yaml.
type DaemonInfo struct {
	Version    int       `yaml:"version"`
	PID        int       `yaml:"pid"`
	ConfigPath string    `yaml:"config_path"`
	StartedAt  time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(pid int, configPath string) *DaemonInfo {
	return &DaemonInfo{
		Version:    1,
		PID:        pid,
		ConfigPath: configPath,
		StartedAt:  time.Now().UTC(),
	}
}
