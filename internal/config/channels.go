package config

import "strings"

// ChannelMatcher matches channels listed by ID ("C0123") or by name
// ("general" or "#general").
type ChannelMatcher struct {
	ids   map[string]struct{}
	names map[string]struct{}
}

// NewChannelMatcher builds a matcher from config entries.
func NewChannelMatcher(entries ...[]string) ChannelMatcher {
	m := ChannelMatcher{
		ids:   make(map[string]struct{}),
		names: make(map[string]struct{}),
	}
	for _, list := range entries {
		for _, e := range list {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			m.ids[e] = struct{}{}
			m.names[strings.ToLower(strings.TrimPrefix(e, "#"))] = struct{}{}
		}
	}
	return m
}

// Match reports whether the channel ID or its name is listed. name may be
// empty when it is not known yet.
func (m ChannelMatcher) Match(id, name string) bool {
	if _, ok := m.ids[id]; ok {
		return true
	}
	if name == "" {
		return false
	}
	_, ok := m.names[strings.ToLower(strings.TrimPrefix(name, "#"))]
	return ok
}
