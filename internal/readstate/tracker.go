package readstate

// ChannelState is the read bookkeeping for one channel. Every field only
// moves forward.
type ChannelState struct {
	LastUnread    Timestamp
	LastHighlight Timestamp
	ReadMarker    Timestamp
}

// IsUnread reports whether a message newer than the read marker was seen.
// Always false until a read marker is known.
func (c ChannelState) IsUnread() bool {
	return !c.ReadMarker.IsZero() && c.LastUnread.After(c.ReadMarker)
}

// IsHighlighted reports whether a highlight newer than the read marker was seen.
// Always false until a read marker is known.
func (c ChannelState) IsHighlighted() bool {
	return !c.ReadMarker.IsZero() && c.LastHighlight.After(c.ReadMarker)
}

func (c ChannelState) String() string {
	switch {
	case c.IsHighlighted():
		return "<HIGHLIGHTED>"
	case c.IsUnread():
		return "<UNREAD>"
	default:
		return "<READ>"
	}
}

// Tracker holds a ChannelState per channel ID. Entries are created on first
// reference and live as long as the tracker. It is not safe for concurrent
// use; the monitor loop owns it.
type Tracker struct {
	channels map[string]*ChannelState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{channels: make(map[string]*ChannelState)}
}

func (t *Tracker) state(channelID string) *ChannelState {
	s, ok := t.channels[channelID]
	if !ok {
		s = &ChannelState{}
		t.channels[channelID] = s
	}
	return s
}

// RecordMessage notes a message at ts in the channel.
func (t *Tracker) RecordMessage(channelID string, ts Timestamp) {
	s := t.state(channelID)
	s.LastUnread = s.LastUnread.Max(ts)
}

// RecordHighlight notes a highlighted message at ts in the channel.
func (t *Tracker) RecordHighlight(channelID string, ts Timestamp) {
	s := t.state(channelID)
	s.LastHighlight = s.LastHighlight.Max(ts)
}

// RecordReadMarker moves the channel's read marker forward to ts.
func (t *Tracker) RecordReadMarker(channelID string, ts Timestamp) {
	s := t.state(channelID)
	s.ReadMarker = s.ReadMarker.Max(ts)
}

// IsUnread reports the channel's unread state. Unknown channels are read.
func (t *Tracker) IsUnread(channelID string) bool {
	s, ok := t.channels[channelID]
	return ok && s.IsUnread()
}

// IsHighlighted reports the channel's highlight state. Unknown channels are
// not highlighted.
func (t *Tracker) IsHighlighted(channelID string) bool {
	s, ok := t.channels[channelID]
	return ok && s.IsHighlighted()
}

// Snapshot returns a copy of every channel state keyed by ID.
func (t *Tracker) Snapshot() map[string]ChannelState {
	out := make(map[string]ChannelState, len(t.channels))
	for id, s := range t.channels {
		out[id] = *s
	}
	return out
}
