// Package highlight decides whether a message mentions the user.
package highlight

import (
	"regexp"
	"sort"
	"strings"
)

// boundary matches start/end of text, an underscore, or any non-word rune.
const boundary = `(?:^|_|\W)`
const boundaryEnd = `(?:_|\W|$)`

// Rules is a compiled, immutable highlight rule set.
type Rules struct {
	words   []string
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

// Self identifies the connected user so their name and mention token can be
// added to the word list.
type Self struct {
	ID   string
	Name string
}

// Mention returns the markup Slack uses for a user mention, e.g. "<@U123>".
func (s Self) Mention() string {
	if s.ID == "" {
		return ""
	}
	return "<@" + s.ID + ">"
}

// Compile builds a rule set. Matching is case-insensitive and each word must
// be delimited on both sides. A message matching any excluded word is never
// a highlight.
func Compile(words, exclude []string, self *Self) *Rules {
	all := append([]string(nil), words...)
	if self != nil {
		all = append(all, self.Name, self.Mention())
	}
	all = normalize(all)

	r := &Rules{words: all}
	r.match = build(all)
	r.exclude = build(normalize(exclude))
	return r
}

// Match reports whether text is a highlight.
func (r *Rules) Match(text string) bool {
	if r == nil || r.match == nil || text == "" {
		return false
	}
	if r.exclude != nil && r.exclude.MatchString(text) {
		return false
	}
	return r.match.MatchString(text)
}

// Words returns the effective word list.
func (r *Rules) Words() []string {
	return append([]string(nil), r.words...)
}

// Pattern returns the compiled match expression, or "" when nothing can match.
func (r *Rules) Pattern() string {
	if r.match == nil {
		return ""
	}
	return r.match.String()
}

func build(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + boundary + `(?:` + strings.Join(quoted, "|") + `)` + boundaryEnd)
}

// normalize trims, drops empties and dedupes case-insensitively. Longer
// words come first so alternation prefers the most specific match.
func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

// SplitPref splits Slack's comma-separated preference strings
// ("highlight_words", "muted_channels").
func SplitPref(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
