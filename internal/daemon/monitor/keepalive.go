package monitor

import "time"

// State is the connection state of the event loop.
type State int

const (
	StateConnected State = iota
	StateAwaitingPong
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAwaitingPong:
		return "AWAITING_PONG"
	case StateReconnecting:
		return "RECONNECTING"
	default:
		return "UNKNOWN"
	}
}

type action int

const (
	actionNone action = iota
	actionPing
	actionReconnect
)

// keepalive tracks probe and acknowledgment times. A zero lastPing means no
// probe was sent on the current connection yet.
type keepalive struct {
	pingInterval time.Duration
	pongTimeout  time.Duration

	lastPing      time.Time
	lastPong      time.Time
	lastReconnect time.Time
	forced        bool
}

func (k *keepalive) connected(now time.Time) {
	k.lastPing = time.Time{}
	k.lastPong = now
}

func (k *keepalive) acked(now time.Time) {
	k.lastPong = now
}

func (k *keepalive) pinged(now time.Time) {
	k.lastPing = now
}

// force requests a reconnect, honoured at most once per ping interval.
func (k *keepalive) force() {
	k.forced = true
}

func (k *keepalive) reconnected(now time.Time) {
	k.lastPong = now
	k.lastReconnect = now
	k.forced = false
}

func (k *keepalive) next(now time.Time) action {
	if now.Sub(k.lastPong) > k.pongTimeout {
		return actionReconnect
	}
	if k.forced && (k.lastReconnect.IsZero() || now.Sub(k.lastReconnect) >= k.pingInterval) {
		return actionReconnect
	}
	if k.lastPing.IsZero() || now.Sub(k.lastPing) > k.pingInterval {
		return actionPing
	}
	return actionNone
}
