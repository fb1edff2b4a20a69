package slackrtm

import (
	"context"
	"errors"
	"sync"

	"github.com/slack-go/slack"
)

// MockAPI is an in-memory API for tests. Unknown channels and users return
// a channel_not_found / user_not_found error.
type MockAPI struct {
	mu sync.Mutex

	Channels map[string]*slack.Channel
	Users    map[string]*slack.User
	Prefs    *slack.UserPrefs

	RTMInfo *slack.Info
	RTMURL  string
	RTMErr  error

	ChannelCalls map[string]int
	UserCalls    map[string]int
	Marked       []MarkCall
	MarkErr      error
}

// MarkCall records one MarkConversationContext invocation.
type MarkCall struct {
	Channel string
	TS      string
}

// NewMockAPI creates an empty mock.
func NewMockAPI() *MockAPI {
	return &MockAPI{
		Channels:     make(map[string]*slack.Channel),
		Users:        make(map[string]*slack.User),
		ChannelCalls: make(map[string]int),
		UserCalls:    make(map[string]int),
	}
}

// Ensure MockAPI implements API
var _ API = (*MockAPI)(nil)

// AddChannel registers a named channel with an optional last_read marker.
func (m *MockAPI) AddChannel(id, name, lastRead string) {
	ch := &slack.Channel{}
	ch.ID = id
	ch.Name = name
	ch.LastRead = lastRead
	m.mu.Lock()
	m.Channels[id] = ch
	m.mu.Unlock()
}

// AddIM registers a direct message conversation with user.
func (m *MockAPI) AddIM(id, user, lastRead string) {
	ch := &slack.Channel{}
	ch.ID = id
	ch.IsIM = true
	ch.User = user
	ch.LastRead = lastRead
	m.mu.Lock()
	m.Channels[id] = ch
	m.mu.Unlock()
}

// AddUser registers a user with a display name.
func (m *MockAPI) AddUser(id, name, displayName string) {
	u := &slack.User{ID: id, Name: name}
	u.Profile.DisplayName = displayName
	m.mu.Lock()
	m.Users[id] = u
	m.mu.Unlock()
}

// MarkCalls returns a copy of the recorded mark calls.
func (m *MockAPI) MarkCalls() []MarkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MarkCall(nil), m.Marked...)
}

func (m *MockAPI) ConnectRTMContext(_ context.Context) (*slack.Info, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RTMErr != nil {
		return nil, "", m.RTMErr
	}
	return m.RTMInfo, m.RTMURL, nil
}

func (m *MockAPI) GetConversationInfoContext(_ context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelCalls[input.ChannelID]++
	ch, ok := m.Channels[input.ChannelID]
	if !ok {
		return nil, slack.SlackErrorResponse{Err: "channel_not_found"}
	}
	cp := *ch
	return &cp, nil
}

func (m *MockAPI) GetUserInfoContext(_ context.Context, userID string) (*slack.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserCalls[userID]++
	u, ok := m.Users[userID]
	if !ok {
		return nil, slack.SlackErrorResponse{Err: "user_not_found"}
	}
	cp := *u
	return &cp, nil
}

func (m *MockAPI) GetUserPrefsContext(_ context.Context) (*slack.UserPrefsCarrier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prefs == nil {
		return nil, errors.New("prefs unavailable")
	}
	p := *m.Prefs
	return &slack.UserPrefsCarrier{UserPrefs: &p}, nil
}

func (m *MockAPI) MarkConversationContext(_ context.Context, channel, ts string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.Marked = append(m.Marked, MarkCall{Channel: channel, TS: ts})
	return nil
}
