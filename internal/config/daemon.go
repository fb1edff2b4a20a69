package config

import (
	"fmt"
	"os"
	"syscall"

	"github.com/slacktray/slacktray/internal/models"
)

// LoadDaemonInfo loads the daemon info from path.
// Returns nil if the file doesn't exist.
func LoadDaemonInfo(path string) (*models.DaemonInfo, error) {
	if !FileExists(path) {
		return nil, nil
	}

	var info models.DaemonInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// IsDaemonRunning checks whether the daemon recorded at path is still alive.
// A stale file is removed.
func IsDaemonRunning(path string) (bool, *models.DaemonInfo, error) {
	info, err := LoadDaemonInfo(path)
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return false, info, nil
	}

	// Signal 0 only checks that the process exists
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = os.Remove(path)
		return false, info, nil
	}

	return info.PID != os.Getpid(), info, nil
}

// ClaimDaemon records this process in ~/.slacktray/daemon.yaml so a second
// instance refuses to start. The returned release func removes the file.
func ClaimDaemon(configPath string) (func(), error) {
	if err := EnsureGlobalDir(); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	path, err := GlobalDaemonFile()
	if err != nil {
		return nil, err
	}
	return claimDaemonAt(path, configPath)
}

func claimDaemonAt(path, configPath string) (func(), error) {
	running, info, err := IsDaemonRunning(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return nil, fmt.Errorf("daemon already running (PID %d, config %s)", info.PID, info.ConfigPath)
	}

	if err := SaveYAML(path, models.NewDaemonInfo(os.Getpid(), configPath)); err != nil {
		return nil, fmt.Errorf("failed to write daemon info: %w", err)
	}

	return func() {
		if FileExists(path) {
			_ = os.Remove(path)
		}
	}, nil
}
