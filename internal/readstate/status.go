package readstate

import "sort"

// Status is the colour shown in the tray.
type Status string

const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
)

// Level orders statuses by severity (green 0, yellow 1, red 2).
func (s Status) Level() int {
	switch s {
	case StatusRed:
		return 2
	case StatusYellow:
		return 1
	default:
		return 0
	}
}

// Describe returns a short human label for the status.
func (s Status) Describe() string {
	switch s {
	case StatusRed:
		return "Highlighted"
	case StatusYellow:
		return "Unread messages"
	default:
		return "All read"
	}
}

// Aggregate derives the global status. Any highlighted channel, muted or not,
// makes it red; otherwise an unread unmuted channel makes it yellow.
func Aggregate(t *Tracker, muted map[string]struct{}) Status {
	unread := false
	for id, s := range t.channels {
		if s.IsHighlighted() {
			return StatusRed
		}
		if unread {
			continue
		}
		if _, isMuted := muted[id]; !isMuted && s.IsUnread() {
			unread = true
		}
	}
	if unread {
		return StatusYellow
	}
	return StatusGreen
}

// Summary is the global status together with the channels driving it.
// Channel lists are sorted by ID; Unread omits muted and highlighted channels.
type Summary struct {
	Status      Status
	Highlighted []string
	Unread      []string
}

// Summarize is Aggregate plus the lists of highlighted and unread channels.
func Summarize(t *Tracker, muted map[string]struct{}) Summary {
	snap := t.Snapshot()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum Summary
	for _, id := range ids {
		s := snap[id]
		if s.IsHighlighted() {
			sum.Highlighted = append(sum.Highlighted, id)
			continue
		}
		if _, isMuted := muted[id]; !isMuted && s.IsUnread() {
			sum.Unread = append(sum.Unread, id)
		}
	}

	switch {
	case len(sum.Highlighted) > 0:
		sum.Status = StatusRed
	case len(sum.Unread) > 0:
		sum.Status = StatusYellow
	default:
		sum.Status = StatusGreen
	}
	return sum
}

// Equal reports whether two summaries show the same thing.
func (s Summary) Equal(other Summary) bool {
	return s.Status == other.Status &&
		equalStrings(s.Highlighted, other.Highlighted) &&
		equalStrings(s.Unread, other.Unread)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
