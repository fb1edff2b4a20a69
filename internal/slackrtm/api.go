// Package slackrtm is the Slack side of the daemon: the RTM websocket
// connection, its typed event stream, keepalive probes, and cached Web API
// lookups.
package slackrtm

import (
	"context"
	"errors"

	"github.com/slack-go/slack"
)

// API is the subset of the Slack Web API the daemon uses.
// This interface allows for mock injection during testing.
type API interface {
	ConnectRTMContext(ctx context.Context) (*slack.Info, string, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetUserInfoContext(ctx context.Context, userID string) (*slack.User, error)
	GetUserPrefsContext(ctx context.Context) (*slack.UserPrefsCarrier, error)
	MarkConversationContext(ctx context.Context, channel, ts string) error
}

// Ensure slack.Client implements API
var _ API = (*slack.Client)(nil)

// NewAPI creates a Web API client. apiURL may be empty for the public endpoint.
func NewAPI(token, apiURL string) *slack.Client {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return slack.New(token, opts...)
}

// authErrors are Slack error codes a retry cannot fix.
var authErrors = map[string]bool{
	"invalid_auth":     true,
	"not_authed":       true,
	"account_inactive": true,
	"token_revoked":    true,
	"token_expired":    true,
	"missing_scope":    true,
}

// IsAuthError reports whether err is a Slack authentication failure.
func IsAuthError(err error) bool {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return authErrors[slackErr.Err]
	}
	return false
}
