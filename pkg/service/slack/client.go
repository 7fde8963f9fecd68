package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/types"
	"github.com/slack-go/slack"
)

// client implements Service interface
type client struct {
	api *slack.Client
}

// New creates a Slack service with the provided bot token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{api: slack.New(token)}, nil
}

var _ Factory = New

func (c *client) PostMessage(ctx context.Context, channelID types.ChannelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID.String(),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}
	return nil
}

func (c *client) PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS, text string) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID.String(), opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to post thread reply",
			goerr.V("channel_id", channelID),
			goerr.V("thread_ts", threadTS),
		)
	}
	return nil
}
