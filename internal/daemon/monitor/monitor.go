// Package monitor runs the daemon's event loop: it drains RTM events into the
// read-state tracker, fires notifications, keeps the connection alive and
// publishes the aggregated tray status.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/highlight"
	"github.com/slacktray/slacktray/internal/metrics"
	"github.com/slacktray/slacktray/internal/models"
	"github.com/slacktray/slacktray/internal/notify"
	"github.com/slacktray/slacktray/internal/readstate"
	"github.com/slacktray/slacktray/internal/slackrtm"
)

// Conn is a live RTM connection.
type Conn interface {
	Drain() []slackrtm.Event
	Ping() error
	Close() error
	Self() highlight.Self
	Session() string
}

// DialFunc opens a new RTM connection.
type DialFunc func(ctx context.Context) (Conn, error)

// Directory resolves channel and user metadata.
type Directory interface {
	Channel(ctx context.Context, id string) (slackrtm.ChannelInfo, error)
	ChannelName(ctx context.Context, id string) string
	UserName(ctx context.Context, id string) string
	RenderMentions(ctx context.Context, text string) string
	MarkRead(ctx context.Context, channel string, ts readstate.Timestamp) error
	Prefs(ctx context.Context) (slackrtm.Prefs, error)
}

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(n notify.Notification) bool
}

// StatusSink receives the status summary whenever it changes. Channel lists
// carry display names ("#general", "@bob").
type StatusSink interface {
	Publish(sum readstate.Summary)
}

// Options wires a Monitor to its collaborators.
type Options struct {
	Settings  *models.Settings
	Dial      DialFunc
	Directory Directory
	Notifier  Notifier
	Sink      StatusSink
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Monitor owns one worker's state. It is not safe for concurrent use; all
// methods run on the worker goroutine.
type Monitor struct {
	settings *models.Settings
	dial     DialFunc
	dir      Directory
	notifier Notifier
	sink     StatusSink
	metrics  *metrics.Metrics
	now      func() time.Time

	conn  Conn
	self  highlight.Self
	rules *highlight.Rules
	state State

	tracker  *readstate.Tracker
	seeded   map[string]bool
	muted    map[string]struct{}
	mutedCfg config.ChannelMatcher
	black    config.ChannelMatcher
	autoMark config.ChannelMatcher

	keepalive keepalive

	summary   readstate.Summary
	published bool
}

// New creates a monitor. Dial and Directory are required.
func New(opts Options) *Monitor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := opts.Settings
	if s == nil {
		s = models.NewSettings()
	}
	return &Monitor{
		settings: s,
		dial:     opts.Dial,
		dir:      opts.Directory,
		notifier: opts.Notifier,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
		now:      now,
		tracker:  readstate.NewTracker(),
		seeded:   make(map[string]bool),
		muted:    make(map[string]struct{}),
		mutedCfg: config.NewChannelMatcher(s.Channels.Muted),
		black:    config.NewChannelMatcher(s.Channels.Blacklist),
		autoMark: config.NewChannelMatcher(s.Channels.AutoMarkRead),
		keepalive: keepalive{
			pingInterval: s.Keepalive.PingInterval,
			pongTimeout:  s.Keepalive.PongTimeout,
		},
	}
}

// Run connects and polls until ctx is cancelled. A failed initial connect
// is returned so the supervisor can retry with backoff.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.start(ctx); err != nil {
		return err
	}
	defer m.closeConn()

	ticker := time.NewTicker(m.settings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[monitor] Stopping")
			return nil
		case <-ticker.C:
			m.step(ctx)
		}
	}
}

// start opens the first connection and builds the highlight rules.
func (m *Monitor) start(ctx context.Context) error {
	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	m.attach(conn)
	m.self = conn.Self()

	words := m.settings.Highlight.Words
	if m.settings.Slack.UsePrefs {
		prefs, err := m.dir.Prefs(ctx)
		if err != nil {
			log.Printf("[monitor] Warning: %v", err)
		} else {
			words = append(append([]string(nil), words...), prefs.HighlightWords...)
			m.mutedCfg = config.NewChannelMatcher(m.settings.Channels.Muted, prefs.MutedChannels)
		}
	}

	var self *highlight.Self
	if m.settings.Highlight.IncludeSelf && m.self.ID != "" {
		self = &m.self
	}
	m.rules = highlight.Compile(words, m.settings.Highlight.Exclude, self)
	if hw := m.rules.Words(); len(hw) > 0 {
		log.Printf("[monitor] Highlighting %d words: %s", len(hw), strings.Join(hw, ", "))
		log.Printf("[monitor] Highlight pattern: %s", m.rules.Pattern())
	} else {
		log.Println("[monitor] No highlight words, only direct messages highlight")
	}
	return nil
}

func (m *Monitor) attach(conn Conn) {
	m.conn = conn
	m.state = StateConnected
	m.keepalive.connected(m.now())
}

func (m *Monitor) closeConn() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		log.Printf("[monitor] Warning: failed to close connection: %v", err)
	}
	m.conn = nil
}

// step is one poll cycle: drain, process, keepalive, publish.
func (m *Monitor) step(ctx context.Context) {
	if m.conn != nil {
		for _, ev := range m.conn.Drain() {
			m.handle(ctx, ev)
		}
	}
	m.checkKeepalive(ctx)
	m.publish(ctx)
}

func (m *Monitor) handle(ctx context.Context, ev slackrtm.Event) {
	m.metrics.ObserveEvent(ev.Kind.String())

	switch ev.Kind {
	case slackrtm.KindMessage:
		m.handleMessage(ctx, ev)
	case slackrtm.KindReadMarker:
		m.ensureChannel(ctx, ev.Channel)
		m.tracker.RecordReadMarker(ev.Channel, ev.Timestamp)
	case slackrtm.KindPong:
		m.keepalive.acked(m.now())
		m.state = StateConnected
	case slackrtm.KindHello:
		log.Printf("[monitor] Server said hello (session %s)", m.conn.Session())
	case slackrtm.KindGoodbye:
		log.Println("[monitor] Server said goodbye, reconnecting")
		m.keepalive.force()
	case slackrtm.KindDisconnected:
		log.Printf("[monitor] Connection lost: %v", ev.Err)
		m.keepalive.force()
	case slackrtm.KindError:
		log.Printf("[monitor] Server error: %v", ev.Err)
	case slackrtm.KindPrefChange:
		log.Printf("[monitor] Preference changed: %s", strings.TrimSpace(string(ev.Raw)))
	}
}

func (m *Monitor) handleMessage(ctx context.Context, ev slackrtm.Event) {
	if ev.Hidden() {
		return
	}
	info := m.ensureChannel(ctx, ev.Channel)
	m.tracker.RecordMessage(ev.Channel, ev.Timestamp)

	if m.autoMark.Match(ev.Channel, info.Name) {
		if err := m.dir.MarkRead(ctx, ev.Channel, ev.Timestamp); err != nil {
			log.Printf("[monitor] Warning: %v", err)
		}
		m.tracker.RecordReadMarker(ev.Channel, ev.Timestamp)
	}

	if m.black.Match(ev.Channel, info.Name) {
		return
	}

	direct := info.Direct()
	if !direct && !m.rules.Match(ev.Text) {
		return
	}
	m.tracker.RecordHighlight(ev.Channel, ev.Timestamp)

	if ev.User != "" && ev.User == m.self.ID {
		return
	}

	kind := notify.KindHighlight
	if direct {
		kind = notify.KindDirectMessage
	}
	body := m.describe(ctx, ev, direct)
	if m.notifier != nil && m.notifier.Notify(notify.Notification{Kind: kind, Body: body}) {
		m.metrics.ObserveNotification(string(kind))
	}
}

// describe renders "#channel user: text" or "user: text" for direct messages.
func (m *Monitor) describe(ctx context.Context, ev slackrtm.Event, direct bool) string {
	author := ev.BotID
	if ev.User != "" {
		author = m.dir.UserName(ctx, ev.User)
	}
	text := m.dir.RenderMentions(ctx, ev.Text)
	if direct {
		return fmt.Sprintf("%s: %s", author, text)
	}
	return fmt.Sprintf("%s %s: %s", m.dir.ChannelName(ctx, ev.Channel), author, text)
}

// ensureChannel seeds the read marker from conversations.info the first
// time a channel is referenced and records whether it is muted.
func (m *Monitor) ensureChannel(ctx context.Context, id string) slackrtm.ChannelInfo {
	info, err := m.dir.Channel(ctx, id)
	if err != nil {
		log.Printf("[monitor] Warning: %v", err)
	}
	// IDs match even when the lookup failed and the name is unknown.
	if m.mutedCfg.Match(id, info.Name) {
		m.muted[id] = struct{}{}
	}
	if m.seeded[id] || err != nil {
		return info
	}
	m.seeded[id] = true

	if !info.LastRead.IsZero() {
		m.tracker.RecordReadMarker(id, info.LastRead)
	}
	return info
}

func (m *Monitor) checkKeepalive(ctx context.Context) {
	now := m.now()
	switch m.keepalive.next(now) {
	case actionReconnect:
		m.reconnect(ctx, now)
	case actionPing:
		m.keepalive.pinged(now)
		m.state = StateAwaitingPong
		var err error
		if m.conn == nil {
			err = slackrtm.ErrNotConnected
		} else {
			err = m.conn.Ping()
		}
		if err != nil {
			log.Printf("[monitor] Warning: keepalive probe failed: %v", err)
			m.metrics.IncPingFailures()
		}
	}
}

// reconnect replaces the connection. The ack clock is reset whether or not
// the new connection came up.
func (m *Monitor) reconnect(ctx context.Context, now time.Time) {
	m.state = StateReconnecting
	m.metrics.IncReconnects()
	log.Printf("[monitor] Reconnecting (last pong %s ago)", now.Sub(m.keepalive.lastPong).Round(time.Second))

	m.closeConn()
	conn, err := m.dial(ctx)
	m.keepalive.reconnected(m.now())
	if err != nil {
		log.Printf("[monitor] Reconnect failed: %v", err)
		return
	}
	m.attach(conn)
	log.Printf("[monitor] Reconnected (session %s)", conn.Session())
}

func (m *Monitor) publish(ctx context.Context) {
	sum := readstate.Summarize(m.tracker, m.muted)
	if m.published && sum.Equal(m.summary) {
		return
	}
	m.summary = sum
	m.published = true
	m.metrics.SetStatus(sum.Status)

	shown := readstate.Summary{
		Status:      sum.Status,
		Highlighted: m.channelNames(ctx, sum.Highlighted),
		Unread:      m.channelNames(ctx, sum.Unread),
	}
	log.Printf("[monitor] Status: %s (highlighted %v, unread %v)", shown.Status, shown.Highlighted, shown.Unread)
	if m.sink != nil {
		m.sink.Publish(shown)
	}
}

func (m *Monitor) channelNames(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = m.dir.ChannelName(ctx, id)
	}
	return names
}

// State returns the keepalive state.
func (m *Monitor) State() State {
	return m.state
}

// Tracker exposes the read-state tracker.
func (m *Monitor) Tracker() *readstate.Tracker {
	return m.tracker
}

// Status returns the last published status.
func (m *Monitor) Status() readstate.Status {
	return m.summary.Status
}
