package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slacktray/slacktray/internal/config"
	"github.com/slacktray/slacktray/internal/readstate"
)

type chanSink chan readstate.Summary

func (c chanSink) Publish(s readstate.Summary) {
	select {
	case c <- s:
	default:
	}
}

// newFakeSlack serves just enough of the Web API and RTM for one worker run.
// Once the websocket is up it sends one message newer than the read marker.
func newFakeSlack(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rtm.connect", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		fmt.Fprintf(w, `{"ok":true,"url":%q,"self":{"id":"U1","name":"me"}}`, wsURL)
	})
	mux.HandleFunc("/api/users.prefs.get", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"prefs":{"muted_channels":"","highlight_words":""}}`)
	})
	mux.HandleFunc("/api/conversations.info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"channel":{"id":"C1","name":"general","last_read":"100.000000"}}`)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello"}`))
		time.Sleep(100 * time.Millisecond)
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"message","channel":"C1","user":"U2","text":"hello","ts":"150.000000"}`))
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServeReportsUnread(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	fake := newFakeSlack(t)
	path := writeConfig(t, fmt.Sprintf(`
slack:
  token: xoxp-test
  api_url: %s/api/
notifications:
  enabled: false
`, fake.URL))

	sink := make(chanSink, 16)
	srv, err := New(path, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	deadline := time.After(10 * time.Second)
	for seen := false; !seen; {
		select {
		case s := <-sink:
			seen = s.Status == readstate.StatusYellow
		case <-deadline:
			t.Fatal("never saw yellow status")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	if _, err := New(writeConfig(t, "slack: {}\n"), nil); err == nil {
		t.Error("New() with no token expected error")
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	path := writeConfig(t, "slack:\n  token: xoxp-one\n")
	srv, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("slack:\n  tokne: typo\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv.Reload()
	if got := srv.Settings().Slack.Token; got != "xoxp-one" {
		t.Errorf("token after bad reload = %q, want previous", got)
	}

	if err := os.WriteFile(path, []byte("slack:\n  token: xoxp-two\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv.Reload()
	if got := srv.Settings().Slack.Token; got != "xoxp-two" {
		t.Errorf("token after reload = %q, want xoxp-two", got)
	}
}

func TestDirectorySharedPerToken(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	srv, err := New(writeConfig(t, "slack:\n  token: xoxp-one\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := srv.Settings()
	api := srv.newAPI(s.Slack.Token, s.Slack.APIURL)
	if srv.directory(s, api) != srv.directory(s, api) {
		t.Error("directory not reused for the same token")
	}
}
