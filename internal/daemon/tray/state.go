// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	"context"
	"log"
	"strings"

	"github.com/slacktray/slacktray/internal/readstate"
)

// DaemonState gives the tray menu access to daemon actions.
type DaemonState interface {
	ConfigPath() string
	Reload()
	RequestShutdown()
}

// Publisher hands status updates from the worker to the tray goroutine.
// Only the latest undelivered summary is kept.
type Publisher struct {
	ch chan readstate.Summary
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{ch: make(chan readstate.Summary, 1)}
}

// Publish posts s, replacing any summary the consumer has not read yet.
// It never blocks.
func (p *Publisher) Publish(s readstate.Summary) {
	for {
		select {
		case p.ch <- s:
			return
		default:
		}
		select {
		case <-p.ch:
		default:
		}
	}
}

// Updates returns the channel the consumer reads from.
func (p *Publisher) Updates() <-chan readstate.Summary {
	return p.ch
}

// formatChannels lists the channels behind a summary, highlighted first,
// e.g. "Highlighted: #ops, @bob · Unread: #general". Empty when all is read.
func formatChannels(s readstate.Summary) string {
	var parts []string
	if len(s.Highlighted) > 0 {
		parts = append(parts, "Highlighted: "+strings.Join(s.Highlighted, ", "))
	}
	if len(s.Unread) > 0 {
		parts = append(parts, "Unread: "+strings.Join(s.Unread, ", "))
	}
	return strings.Join(parts, " · ")
}

// RunHeadless logs status changes until ctx is done. Used instead of the
// tray when running in the foreground.
func RunHeadless(ctx context.Context, p *Publisher) {
	var last readstate.Summary
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-p.Updates():
			if s.Equal(last) {
				continue
			}
			last = s
			if detail := formatChannels(s); detail != "" {
				log.Printf("[tray] %s (%s) %s", s.Status, s.Status.Describe(), detail)
			} else {
				log.Printf("[tray] %s (%s)", s.Status, s.Status.Describe())
			}
		}
	}
}
