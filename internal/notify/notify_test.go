package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/slacktray/slacktray/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	shown  []string
	played []string
	err    error
}

func (r *recorder) show(title, body, icon string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, title+"|"+body)
	return r.err
}

func (r *recorder) play(player, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, player+" "+path)
	return nil
}

func newTestNotifier(r *recorder, n models.NotificationsConfig, s models.SoundsConfig) *Notifier {
	return New(n, s).WithBackends(r.show, r.play)
}

func defaults() (models.NotificationsConfig, models.SoundsConfig) {
	s := models.NewSettings()
	return s.Notifications, s.Sounds
}

func TestSubjects(t *testing.T) {
	if got := KindHighlight.Subject(); got != "Slack Chat" {
		t.Errorf("highlight subject = %q", got)
	}
	if got := KindDirectMessage.Subject(); got != "Slack PM" {
		t.Errorf("direct message subject = %q", got)
	}
}

func TestNotifyShowsAndPlays(t *testing.T) {
	n, s := defaults()
	s.Highlight = "/tmp/ping.wav"
	r := &recorder{}
	nt := newTestNotifier(r, n, s)

	tests := []struct {
		name      string
		note      Notification
		wantShown string
		wantSound bool
	}{
		{name: "highlight with sound", note: Notification{Kind: KindHighlight, Body: "#ops bob: deploy\n now"}, wantShown: "Slack Chat|#ops bob: deploy now", wantSound: true},
		{name: "direct message without sound", note: Notification{Kind: KindDirectMessage, Body: "@bob: hi"}, wantShown: "Slack PM|@bob: hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.shown, r.played = nil, nil
			if !nt.Notify(tt.note) {
				t.Fatal("Notify() = false, want true")
			}
			nt.Wait()
			if len(r.shown) != 1 || r.shown[0] != tt.wantShown {
				t.Errorf("shown = %q, want %q", r.shown, tt.wantShown)
			}
			if (len(r.played) == 1) != tt.wantSound {
				t.Errorf("played = %q, wantSound %v", r.played, tt.wantSound)
			}
		})
	}
}

func TestNotifyTruncatesBody(t *testing.T) {
	n, s := defaults()
	n.BodyWidth = 10
	r := &recorder{}
	nt := newTestNotifier(r, n, s)

	nt.Notify(Notification{Kind: KindHighlight, Body: strings.Repeat("x", 50)})
	nt.Wait()

	body := strings.SplitN(r.shown[0], "|", 2)[1]
	if len([]rune(body)) != 10 || !strings.HasSuffix(body, "…") {
		t.Errorf("body = %q, want 10 cells ending in an ellipsis", body)
	}
}

func TestNotifyDisabled(t *testing.T) {
	n, s := defaults()
	n.Enabled = false
	r := &recorder{}
	if newTestNotifier(r, n, s).Notify(Notification{Kind: KindHighlight, Body: "x"}) {
		t.Error("Notify() on disabled notifier = true")
	}

	var nilNotifier *Notifier
	if nilNotifier.Notify(Notification{Kind: KindHighlight}) {
		t.Error("Notify() on nil notifier = true")
	}
}

func TestNotifyRateLimit(t *testing.T) {
	n, s := defaults()
	n.PerMinute = 1
	n.Burst = 2
	r := &recorder{}
	nt := newTestNotifier(r, n, s)

	var dropped []Kind
	nt.OnDrop = func(k Kind) { dropped = append(dropped, k) }

	sent := 0
	for i := 0; i < 5; i++ {
		if nt.Notify(Notification{Kind: KindHighlight, Body: "x"}) {
			sent++
		}
	}
	nt.Wait()

	if sent != 2 {
		t.Errorf("sent = %d, want 2 (burst)", sent)
	}
	if len(dropped) != 3 {
		t.Errorf("dropped = %d, want 3", len(dropped))
	}
}

func TestNotifyBackendErrorIsSwallowed(t *testing.T) {
	n, s := defaults()
	r := &recorder{err: errors.New("no notification daemon")}
	nt := newTestNotifier(r, n, s)

	if !nt.Notify(Notification{Kind: KindHighlight, Body: "x"}) {
		t.Error("Notify() = false, backend errors should not count as drops")
	}
	nt.Wait()
}
