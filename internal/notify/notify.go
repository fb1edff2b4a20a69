// Package notify delivers desktop notifications and sounds for highlighted
// Slack messages. Delivery is best effort: failures are logged, never
// returned to the event loop.
package notify

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/gen2brain/beeep"
	"golang.org/x/time/rate"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/models"
)

// Kind selects the subject line and sound of a notification.
type Kind string

const (
	KindHighlight     Kind = "highlight"
	KindDirectMessage Kind = "direct_message"
)

// Subject returns the notification title for the kind.
func (k Kind) Subject() string {
	if k == KindDirectMessage {
		return "Slack PM"
	}
	return "Slack Chat"
}

// Notification is one message to show.
type Notification struct {
	Kind Kind
	Body string
}

// ShowFunc displays a desktop notification.
type ShowFunc func(title, body, icon string) error

// PlayFunc plays a sound file with the given player command.
type PlayFunc func(player, path string) error

// Notifier shows notifications and plays sounds, rate limited.
type Notifier struct {
	enabled bool
	width   int
	icon    string
	player  string
	sounds  map[Kind]string
	limiter *rate.Limiter

	show ShowFunc
	play PlayFunc

	// OnDrop is called when the rate limiter rejects a notification.
	OnDrop func(Kind)

	wg sync.WaitGroup
}

// New creates a notifier from the notification and sound settings.
func New(n models.NotificationsConfig, s models.SoundsConfig) *Notifier {
	limit := rate.Inf
	if n.PerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(n.PerMinute))
	}
	burst := n.Burst
	if burst <= 0 {
		burst = 1
	}

	nt := &Notifier{
		enabled: n.Enabled,
		width:   n.BodyWidth,
		icon:    expand(n.Icon),
		player:  s.Player,
		sounds: map[Kind]string{
			KindHighlight:     expand(s.Highlight),
			KindDirectMessage: expand(s.DirectMessage),
		},
		limiter: rate.NewLimiter(limit, burst),
		show:    showDesktop,
		play:    playSound,
	}
	return nt
}

// WithBackends replaces the desktop and sound backends. Nil leaves the
// default in place.
func (n *Notifier) WithBackends(show ShowFunc, play PlayFunc) *Notifier {
	if show != nil {
		n.show = show
	}
	if play != nil {
		n.play = play
	}
	return n
}

// Notify queues a notification. It returns false when notifications are
// disabled or the rate limit dropped it.
func (n *Notifier) Notify(note Notification) bool {
	if n == nil || !n.enabled {
		return false
	}
	if !n.limiter.Allow() {
		log.Printf("[notify] rate limit reached, dropping %s notification", note.Kind)
		if n.OnDrop != nil {
			n.OnDrop(note.Kind)
		}
		return false
	}

	title := note.Kind.Subject()
	body := n.format(note.Body)
	sound := n.sounds[note.Kind]

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.show(title, body, n.icon); err != nil {
			log.Printf("[notify] failed to show notification: %v", err)
		}
		if sound != "" && n.player != "" {
			if err := n.play(n.player, sound); err != nil {
				log.Printf("[notify] failed to play %s: %v", sound, err)
			}
		}
	}()
	return true
}

// Wait blocks until every queued delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) format(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if n.width > 0 {
		body = ansi.Truncate(body, n.width, "…")
	}
	return body
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	p, err := config.ExpandPath(path)
	if err != nil {
		return path
	}
	return p
}

func showDesktop(title, body, icon string) error {
	if err := beeep.Notify(title, body, icon); err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", err)
	}
	return nil
}

func playSound(player, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to stat sound file: %w", err)
	}
	cmd := exec.Command(player, path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", player, err)
	}
	return nil
}
