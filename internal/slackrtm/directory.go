package slackrtm

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/slack-go/slack"

	"github.com/slacktray/slacktray/internal/highlight"
	"github.com/slacktray/slacktray/internal/readstate"
)

// ChannelInfo is the cached metadata for one conversation.
type ChannelInfo struct {
	ID       string
	Name     string
	IsIM     bool
	IsMpIM   bool
	User     string // the other party of an IM
	LastRead readstate.Timestamp
}

// Direct reports whether the conversation is a direct message.
func (c ChannelInfo) Direct() bool {
	return c.IsIM || strings.HasPrefix(c.ID, "D")
}

// Prefs are the user preferences the daemon merges into its config.
type Prefs struct {
	MutedChannels  []string
	HighlightWords []string
}

// Directory memoizes channel and user lookups for the life of the process.
// Failed lookups are not cached so they are retried on the next call.
type Directory struct {
	api API

	mu       sync.Mutex
	channels map[string]ChannelInfo
	users    map[string]string
}

// NewDirectory creates an empty directory over api.
func NewDirectory(api API) *Directory {
	return &Directory{
		api:      api,
		channels: make(map[string]ChannelInfo),
		users:    make(map[string]string),
	}
}

// Channel returns metadata for a conversation. The error is non-nil only
// when the lookup failed; the returned info then carries just the ID.
func (d *Directory) Channel(ctx context.Context, id string) (ChannelInfo, error) {
	d.mu.Lock()
	info, ok := d.channels[id]
	d.mu.Unlock()
	if ok {
		return info, nil
	}

	ch, err := d.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: id})
	if err != nil {
		return ChannelInfo{ID: id, Name: id}, fmt.Errorf("failed to look up channel %s: %w", id, err)
	}

	info = ChannelInfo{
		ID:       id,
		Name:     ch.Name,
		IsIM:     ch.IsIM,
		IsMpIM:   ch.IsMpIM,
		User:     ch.User,
		LastRead: readstate.Timestamp(ch.LastRead),
	}
	if info.IsIM && info.User != "" {
		info.Name = "@" + d.UserName(ctx, info.User)
	}
	if info.Name == "" {
		info.Name = id
	}

	d.mu.Lock()
	d.channels[id] = info
	d.mu.Unlock()
	return info, nil
}

// ChannelName returns a display name ("#general", "@bob") or the raw ID.
func (d *Directory) ChannelName(ctx context.Context, id string) string {
	info, err := d.Channel(ctx, id)
	if err != nil {
		log.Printf("[rtm] %v", err)
		return id
	}
	if info.IsIM || strings.HasPrefix(info.Name, "@") || info.Name == id {
		return info.Name
	}
	return "#" + info.Name
}

// UserName returns the user's display name, falling back to the raw ID.
func (d *Directory) UserName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	d.mu.Lock()
	name, ok := d.users[id]
	d.mu.Unlock()
	if ok {
		return name
	}

	user, err := d.api.GetUserInfoContext(ctx, id)
	if err != nil {
		log.Printf("[rtm] failed to look up user %s: %v", id, err)
		return id
	}
	name = user.Profile.DisplayName
	if name == "" {
		name = user.RealName
	}
	if name == "" {
		name = user.Name
	}
	if name == "" {
		name = id
	}

	d.mu.Lock()
	d.users[id] = name
	d.mu.Unlock()
	return name
}

var mentionRe = regexp.MustCompile(`<@([UW][A-Z0-9]+)(?:\|([^>]*))?>`)

// RenderMentions replaces "<@U123>" tokens with "@name" for display.
func (d *Directory) RenderMentions(ctx context.Context, text string) string {
	return mentionRe.ReplaceAllStringFunc(text, func(tok string) string {
		m := mentionRe.FindStringSubmatch(tok)
		if m[2] != "" {
			return "@" + m[2]
		}
		return "@" + d.UserName(ctx, m[1])
	})
}

// Prefs fetches muted channels and highlight words from users.prefs.get.
func (d *Directory) Prefs(ctx context.Context) (Prefs, error) {
	carrier, err := d.api.GetUserPrefsContext(ctx)
	if err != nil {
		return Prefs{}, fmt.Errorf("failed to fetch user prefs: %w", err)
	}
	if carrier == nil || carrier.UserPrefs == nil {
		return Prefs{}, nil
	}
	return Prefs{
		MutedChannels:  highlight.SplitPref(carrier.UserPrefs.MutedChannels),
		HighlightWords: highlight.SplitPref(carrier.UserPrefs.HighlightWords),
	}, nil
}

// MarkRead moves the channel's read marker on the server.
func (d *Directory) MarkRead(ctx context.Context, channel string, ts readstate.Timestamp) error {
	if err := d.api.MarkConversationContext(ctx, channel, string(ts)); err != nil {
		return fmt.Errorf("failed to mark %s read at %s: %w", channel, ts, err)
	}
	return nil
}
