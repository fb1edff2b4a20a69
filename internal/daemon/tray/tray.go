package tray

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/getlantern/systray"

	"github.com/slacktray/slacktray/internal/readstate"
)

var (
	state      DaemonState
	publisher  *Publisher
	onStart    func()
	onExit     func()
	statusItem *systray.MenuItem
	detailItem *systray.MenuItem
	reloadItem *systray.MenuItem
	quitItem   *systray.MenuItem
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (start the worker here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, p *Publisher, onStartFn, onExitFn func()) {
	state = s
	publisher = p
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetIcon(iconFor(readstate.StatusGreen))
	systray.SetTooltip(formatTooltip(readstate.Summary{Status: readstate.StatusGreen}))

	header := systray.AddMenuItem("Slack Tray", "")
	header.Disable()

	statusItem = systray.AddMenuItem("Connecting...", "")
	statusItem.Disable()

	detailItem = systray.AddMenuItem("", "")
	detailItem.Disable()
	detailItem.Hide()

	if state != nil {
		cfg := systray.AddMenuItem("Config: "+filepath.Base(state.ConfigPath()), state.ConfigPath())
		cfg.Disable()
	}

	systray.AddSeparator()

	reloadItem = systray.AddMenuItem("Reload Config", "Restart with the config file reloaded")
	quitItem = systray.AddMenuItem("Quit", "Shut down slacktray")

	if onStart != nil {
		onStart()
	}

	go handleClicks()
	if publisher != nil {
		go consume(publisher)
	}
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-reloadItem.ClickedCh:
			if state != nil {
				state.Reload()
			}
		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}
		}
	}
}

// consume is the only code that changes the icon after startup.
func consume(p *Publisher) {
	for s := range p.Updates() {
		apply(s)
	}
}

func apply(s readstate.Summary) {
	log.Printf("[tray] Status: %s", s.Status)
	systray.SetIcon(iconFor(s.Status))
	systray.SetTooltip(formatTooltip(s))
	statusItem.SetTitle(s.Status.Describe())

	if detail := formatChannels(s); detail != "" {
		detailItem.SetTitle(detail)
		detailItem.Show()
	} else {
		detailItem.Hide()
	}
}

func formatTooltip(s readstate.Summary) string {
	if detail := formatChannels(s); detail != "" {
		return fmt.Sprintf("Slack: %s\n%s", s.Status.Describe(), detail)
	}
	return fmt.Sprintf("Slack: %s", s.Status.Describe())
}
