package slackrtm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/slack-go/slack"

	"github.com/slacktray/slacktray/internal/highlight"
)

const (
	eventQueueSize = 256
	writeTimeout   = 10 * time.Second
)

// ErrNotConnected is returned when probing a closed connection.
var ErrNotConnected = errors.New("rtm: not connected")

// Client opens RTM connections.
type Client struct {
	api      API
	dialer   *websocket.Dialer
	attempts uint
}

// NewClient creates an RTM client on top of a Web API client.
func NewClient(api API) *Client {
	return &Client{
		api:      api,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		attempts: 3,
	}
}

// Connect calls rtm.connect and dials the returned websocket URL, retrying
// transient failures a few times. Authentication failures are not retried.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	var (
		conn    *Conn
		lastErr error
	)

	err := retry.Do(
		func() error {
			info, wsURL, err := c.api.ConnectRTMContext(ctx)
			if err != nil {
				lastErr = fmt.Errorf("rtm.connect: %w", err)
				return lastErr
			}

			ws, _, err := c.dialer.DialContext(ctx, wsURL, nil)
			if err != nil {
				lastErr = fmt.Errorf("dial websocket: %w", err)
				return lastErr
			}

			var self highlight.Self
			if info != nil && info.User != nil {
				self = highlight.Self{ID: info.User.ID, Name: info.User.Name}
			}
			conn = newConn(ws, self)
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[rtm] connect attempt %d failed: %v", n+1, err)
		}),
		retry.RetryIf(func(err error) bool {
			return !IsAuthError(err) && ctx.Err() == nil
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("failed to connect to Slack RTM: %w", lastErr)
	}

	log.Printf("[rtm] connected as %s (%s), session %s", conn.self.Name, conn.self.ID, conn.session)
	return conn, nil
}

// Conn is one live RTM websocket. A reader goroutine decodes frames into a
// buffered queue which the owner empties with Drain.
type Conn struct {
	ws      *websocket.Conn
	self    highlight.Self
	session string

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	nextID    atomic.Int64
	closeOnce sync.Once
	closed    atomic.Bool
}

func newConn(ws *websocket.Conn, self highlight.Self) *Conn {
	c := &Conn{
		ws:      ws,
		self:    self,
		session: uuid.NewString(),
		events:  make(chan Event, eventQueueSize),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Self returns the authenticated user as reported by rtm.connect.
func (c *Conn) Self() highlight.Self {
	return c.self
}

// Session is a random ID for correlating log lines of one connection.
func (c *Conn) Session() string {
	return c.session
}

// Drain returns every queued event without blocking.
func (c *Conn) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-c.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Next blocks until an event arrives or ctx is done.
func (c *Conn) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Ping sends a keepalive probe.
func (c *Conn) Ping() error {
	if c.closed.Load() {
		return ErrNotConnected
	}
	msg := &slack.Ping{
		ID:        int(c.nextID.Add(1)),
		Type:      "ping",
		Timestamp: time.Now().Unix(),
	}
	return c.writeJSON(msg)
}

func (c *Conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close shuts the websocket and stops the reader. Safe to call twice.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.push(Event{Kind: KindDisconnected, Err: err, Received: time.Now()})
			}
			return
		}

		ev, err := Decode(data)
		if err != nil {
			log.Printf("[rtm] skipping frame: %v", err)
			continue
		}
		ev.Received = time.Now()
		if !c.push(ev) {
			return
		}
	}
}

func (c *Conn) push(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}
