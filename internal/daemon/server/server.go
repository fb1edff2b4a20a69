// Package server wires the daemon together: settings, the supervised
// monitor worker, the config watcher and the metrics endpoint.
package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/daemon/monitor"
	"github.com/slacktray/slacktray/internal/daemon/supervisor"
	"github.com/slacktray/slacktray/internal/daemon/watcher"
	"github.com/slacktray/slacktray/internal/metrics"
	"github.com/slacktray/slacktray/internal/models"
	"github.com/slacktray/slacktray/internal/notify"
	"github.com/slacktray/slacktray/internal/slackrtm"
)

// APIFactory creates a Slack API client for a token and endpoint.
type APIFactory func(token, apiURL string) slackrtm.API

// Server is the daemon.
type Server struct {
	configPath string
	sink       monitor.StatusSink
	metrics    *metrics.Metrics
	supervisor *supervisor.Supervisor
	newAPI     APIFactory

	mu       sync.RWMutex
	settings *models.Settings
	dirs     map[string]*slackrtm.Directory // by token and endpoint
}

// New loads the config at configPath and prepares the daemon. Status
// changes are posted to sink.
func New(configPath string, sink monitor.StatusSink) (*Server, error) {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return nil, err
	}
	log.Printf("[server] Loaded %s: %s", configPath, config.Redacted(settings))

	srv := &Server{
		configPath: configPath,
		sink:       sink,
		metrics:    metrics.New(),
		supervisor: supervisor.New(settings.RestartDelay),
		newAPI: func(token, apiURL string) slackrtm.API {
			return slackrtm.NewAPI(token, apiURL)
		},
		settings: settings,
		dirs:     make(map[string]*slackrtm.Directory),
	}
	srv.supervisor.OnRestart = func(error) { srv.metrics.IncRestarts() }
	return srv, nil
}

// ConfigPath returns the config file the daemon was started with.
func (s *Server) ConfigPath() string {
	return s.configPath
}

// Settings returns the settings the next worker run will use.
func (s *Server) Settings() *models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Serve runs the daemon until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	settings := s.Settings()

	w, err := watcher.New()
	if err != nil {
		log.Printf("[server] Warning: config reload disabled: %v", err)
	} else {
		defer w.Stop()
		s.watchFiles(w, settings)
		w.Start()
		go s.handleWatchEvents(ctx, w)
	}

	if settings.Metrics.Listen != "" {
		go func() {
			if err := s.metrics.Serve(ctx, settings.Metrics.Listen); err != nil {
				log.Printf("[server] Warning: %v", err)
			}
		}()
	}

	return s.supervisor.Run(ctx, s.work)
}

func (s *Server) watchFiles(w *watcher.Watcher, settings *models.Settings) {
	if err := w.WatchFile(s.configPath); err != nil {
		log.Printf("[server] Warning: %v", err)
	}
	if settings.Slack.TokenFile != "" {
		if path, err := config.ExpandPath(settings.Slack.TokenFile); err == nil {
			if err := w.WatchFile(path); err != nil {
				log.Printf("[server] Warning: %v", err)
			}
		}
	}
}

func (s *Server) handleWatchEvents(ctx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.Events():
			log.Printf("[server] %s changed, reloading", ev.Path)
			s.Reload()
		}
	}
}

// Reload re-reads the config file and restarts the worker with it. A config
// that fails to load is logged and the running worker is kept.
func (s *Server) Reload() {
	settings, err := config.LoadSettings(s.configPath)
	if err != nil {
		log.Printf("[server] Keeping previous config: %v", err)
		return
	}

	s.mu.Lock()
	prev := s.settings
	s.settings = settings
	s.mu.Unlock()

	if prev.Metrics.Listen != settings.Metrics.Listen {
		log.Println("[server] metrics.listen changed; takes effect after a restart")
	}
	log.Printf("[server] Reloaded: %s", config.Redacted(settings))
	s.supervisor.Restart()
}

// directory returns the lookup cache for the token, shared across worker runs.
func (s *Server) directory(settings *models.Settings, api slackrtm.API) *slackrtm.Directory {
	key := settings.Slack.Token + "\x00" + settings.Slack.APIURL

	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.dirs[key]
	if !ok {
		dir = slackrtm.NewDirectory(api)
		s.dirs[key] = dir
	}
	return dir
}

// work is one supervised run of the event loop.
func (s *Server) work(ctx context.Context) error {
	settings := s.Settings()
	api := s.newAPI(settings.Slack.Token, settings.Slack.APIURL)
	client := slackrtm.NewClient(api)

	notifier := notify.New(settings.Notifications, settings.Sounds)
	notifier.OnDrop = func(k notify.Kind) { s.metrics.ObserveDropped(string(k)) }

	mon := monitor.New(monitor.Options{
		Settings:  settings,
		Directory: s.directory(settings, api),
		Notifier:  notifier,
		Sink:      s.sink,
		Metrics:   s.metrics,
		Dial: func(ctx context.Context) (monitor.Conn, error) {
			conn, err := client.Connect(ctx)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	})

	err := mon.Run(ctx)
	notifier.Wait()
	if err != nil {
		return fmt.Errorf("monitor stopped: %w", err)
	}
	return nil
}

// TrayState adapts a Server to the tray.DaemonState interface.
type TrayState struct {
	srv *Server
}

// NewTrayState creates a TrayState for the given server.
func NewTrayState(srv *Server) *TrayState {
	return &TrayState{srv: srv}
}

// ConfigPath returns the config file path.
func (t *TrayState) ConfigPath() string {
	return t.srv.ConfigPath()
}

// Reload reloads the config and restarts the worker.
func (t *TrayState) Reload() {
	go t.srv.Reload()
}

// RequestShutdown sends SIGINT to the current process to trigger a graceful shutdown.
func (t *TrayState) RequestShutdown() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}
