package slack

import (
	"context"

	"github.com/ponderbot/ponder/pkg/domain/types"
)

// Service is the outbound Slack messaging surface used by event dispatch.
type Service interface {
	// PostMessage posts text to a channel
	PostMessage(ctx context.Context, channelID types.ChannelID, text string) error

	// PostThreadReply posts text to a channel as a reply in the given
	// thread. An empty threadTS posts to the channel directly.
	PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS, text string) error
}

// Factory builds a tenant-scoped Service from a decrypted bot token. The
// event router calls this per event so no client outlives the credential
// lookup that produced it.
type Factory func(botToken string) (Service, error)
