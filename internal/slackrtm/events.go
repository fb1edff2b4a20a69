package slackrtm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/slacktray/slacktray/internal/readstate"
)

// Kind classifies an incoming RTM frame.
type Kind int

// Event kinds the monitor distinguishes.
const (
	KindOther Kind = iota
	KindMessage
	KindReadMarker
	KindPong
	KindHello
	KindGoodbye
	KindError
	KindPrefChange
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindReadMarker:
		return "read_marker"
	case KindPong:
		return "pong"
	case KindHello:
		return "hello"
	case KindGoodbye:
		return "goodbye"
	case KindError:
		return "error"
	case KindPrefChange:
		return "pref_change"
	case KindDisconnected:
		return "disconnected"
	default:
		return "other"
	}
}

// markerTypes are the frame types that move a read marker.
var markerTypes = map[string]bool{
	"channel_marked": true,
	"im_marked":      true,
	"group_marked":   true,
	"mpim_marked":    true,
}

// hiddenSubtypes are message subtypes that do not represent a new message:
// edits, deletions, thread bookkeeping and membership or channel metadata
// notices.
var hiddenSubtypes = map[string]bool{
	slack.MsgSubTypeMessageChanged:            true,
	slack.MsgSubTypeMessageDeleted:            true,
	slack.MsgSubTypeMessageReplied:            true,
	slack.MsgSubTypeChannelJoin:               true,
	slack.MsgSubTypeChannelLeave:              true,
	slack.MsgSubTypeChannelTopic:              true,
	slack.MsgSubTypeChannelPurpose:            true,
	slack.MsgSubTypeChannelName:               true,
	slack.MsgSubTypeChannelArchive:            true,
	slack.MsgSubTypeChannelUnarchive:          true,
	slack.MsgSubTypeGroupJoin:                 true,
	slack.MsgSubTypeGroupLeave:                true,
	slack.MsgSubTypeGroupTopic:                true,
	slack.MsgSubTypeGroupPurpose:              true,
	slack.MsgSubTypeGroupName:                 true,
	slack.MsgSubTypeGroupArchive:              true,
	slack.MsgSubTypeGroupUnarchive:            true,
	slack.MsgSubTypePinnedItem:                true,
	slack.MsgSubTypeUnpinnedItem:              true,
	slack.MsgSubTypeChannelPostingPermissions: true,
}

// Event is one decoded RTM frame.
type Event struct {
	Kind      Kind
	Type      string // raw "type" field
	SubType   string
	Channel   string
	User      string
	BotID     string
	Text      string
	Timestamp readstate.Timestamp
	Received  time.Time
	Err       error
	Raw       json.RawMessage
}

// Hidden reports whether a message event is an edit, deletion, membership
// notice or other bookkeeping update rather than a new message.
func (e Event) Hidden() bool {
	return e.Kind == KindMessage && hiddenSubtypes[e.SubType]
}

// rtmError is the body of an RTM "error" frame.
type rtmError struct {
	Error struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

// Decode classifies a raw frame. Frames with an unknown type decode to
// KindOther; frames that are not valid JSON return an error.
func Decode(raw []byte) (Event, error) {
	var head slack.Event
	if err := json.Unmarshal(raw, &head); err != nil {
		return Event{}, fmt.Errorf("failed to decode frame: %w", err)
	}

	ev := Event{Type: head.Type, Raw: append(json.RawMessage(nil), raw...)}

	switch {
	case head.Type == "message":
		var msg slack.MessageEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return Event{}, fmt.Errorf("failed to decode message: %w", err)
		}
		ev.Kind = KindMessage
		ev.SubType = msg.SubType
		ev.Channel = msg.Channel
		ev.User = msg.User
		ev.BotID = msg.BotID
		ev.Text = msg.Text
		ev.Timestamp = readstate.Timestamp(msg.Timestamp)
		if msg.SubMessage != nil && ev.Text == "" {
			ev.Text = msg.SubMessage.Text
		}
		if ev.Channel == "" || ev.Timestamp.IsZero() {
			return Event{}, fmt.Errorf("message without channel or ts")
		}

	case markerTypes[head.Type]:
		var marked slack.ChannelMarkedEvent
		if err := json.Unmarshal(raw, &marked); err != nil {
			return Event{}, fmt.Errorf("failed to decode %s: %w", head.Type, err)
		}
		if marked.Channel == "" || marked.Timestamp == "" {
			return Event{}, fmt.Errorf("%s without channel or ts", head.Type)
		}
		ev.Kind = KindReadMarker
		ev.Channel = marked.Channel
		ev.Timestamp = readstate.Timestamp(marked.Timestamp)

	case head.Type == "pong":
		ev.Kind = KindPong

	case head.Type == "hello":
		ev.Kind = KindHello

	case head.Type == "goodbye":
		ev.Kind = KindGoodbye

	case head.Type == "error":
		var e rtmError
		_ = json.Unmarshal(raw, &e)
		ev.Kind = KindError
		ev.Err = fmt.Errorf("rtm error %d: %s", e.Error.Code, e.Error.Msg)

	case head.Type == "pref_change":
		ev.Kind = KindPrefChange
	}

	return ev, nil
}
