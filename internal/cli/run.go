package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/daemon/server"
	"github.com/slacktray/slacktray/internal/daemon/tray"
)

// runDaemon loads the config and runs the daemon until a signal or the
// tray's Quit item stops it.
func runDaemon(configPath string, foreground bool) error {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	beeep.AppName = "slacktray"
	pub := tray.NewPublisher()

	srv, err := server.New(abs, pub)
	if err != nil {
		return err
	}

	release, err := config.ClaimDaemon(abs)
	if err != nil {
		return err
	}
	defer release()

	if foreground {
		log.Println("Running in foreground mode (no system tray)")
		return runForeground(srv, pub)
	}
	log.Println("Running with system tray")
	return runWithTray(srv, pub)
}

// runForeground runs the daemon without a system tray, blocking on signals.
func runForeground(srv *server.Server, pub *tray.Publisher) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go tray.RunHeadless(ctx, pub)

	log.Printf("Daemon started (PID %d)", os.Getpid())
	err := srv.Serve(ctx)
	fmt.Println("Daemon stopped")
	return err
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(srv *server.Server, pub *tray.Publisher) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)

	onStart := func() {
		log.Printf("Daemon started (PID %d)", os.Getpid())

		go func() {
			serveDone <- srv.Serve(ctx)
			tray.Quit()
		}()

		// Handle OS signals, quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Printf("Received signal %v, shutting down...", sig)
				tray.Quit()
			case <-ctx.Done():
			}
		}()
	}

	onExit := func() {
		cancel()
		fmt.Println("Daemon stopped")
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(server.NewTrayState(srv), pub, onStart, onExit)

	select {
	case err := <-serveDone:
		return err
	case <-time.After(5 * time.Second):
		return nil
	}
}
