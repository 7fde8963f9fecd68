package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
	"github.com/ponderbot/ponder/pkg/repository/memory"
	slacksvc "github.com/ponderbot/ponder/pkg/service/slack"
	"github.com/ponderbot/ponder/pkg/usecase"
	"github.com/slack-go/slack/slackevents"
)

type postedMessage struct {
	channel  types.ChannelID
	threadTS string
	text     string
	threaded bool
}

type slackMock struct {
	mu    sync.Mutex
	token string
	posts []postedMessage
}

func (x *slackMock) PostMessage(_ context.Context, channelID types.ChannelID, text string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.posts = append(x.posts, postedMessage{channel: channelID, text: text})
	return nil
}

func (x *slackMock) PostThreadReply(_ context.Context, channelID types.ChannelID, threadTS, text string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.posts = append(x.posts, postedMessage{channel: channelID, threadTS: threadTS, text: text, threaded: true})
	return nil
}

func (x *slackMock) factory() slacksvc.Factory {
	return func(botToken string) (slacksvc.Service, error) {
		x.mu.Lock()
		defer x.mu.Unlock()
		x.token = botToken
		return x, nil
	}
}

func installTeam(t *testing.T, repo *memory.Memory, teamID types.TeamID) {
	t.Helper()
	v := newTestVault(t, repo)
	gt.NoError(t, v.Save(context.Background(), teamID, "Test Workspace", "xoxb-"+teamID.String(), "UBOT", "chat:write")).Required()
}

func mentionEvent(teamID, channel, threadTS string) *slackevents.EventsAPIEvent {
	return &slackevents.EventsAPIEvent{
		TeamID: teamID,
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: string(types.EventAppMention),
			Data: &slackevents.AppMentionEvent{
				Channel:         channel,
				ThreadTimeStamp: threadTS,
				User:            "U123",
			},
		},
	}
}

func messageEvent(teamID, channel, channelType, user, botID string) *slackevents.EventsAPIEvent {
	return &slackevents.EventsAPIEvent{
		TeamID: teamID,
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: string(types.EventMessage),
			Data: &slackevents.MessageEvent{
				Channel:     channel,
				ChannelType: channelType,
				User:        user,
				BotID:       botID,
			},
		},
	}
}

func TestHandleMentionRepliesInThread(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	installTeam(t, repo, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo), usecase.WithSlackFactory(mock.factory()))

	gt.NoError(t, uc.HandleEvent(ctx, mentionEvent("T100", "C42", "1712000000.000100"))).Required()

	gt.Array(t, mock.posts).Length(1)
	gt.Value(t, mock.posts[0].channel).Equal(types.ChannelID("C42"))
	gt.Value(t, mock.posts[0].threadTS).Equal("1712000000.000100")
	gt.Value(t, mock.posts[0].text).Equal(usecase.DefaultReplyText)
	gt.Bool(t, mock.posts[0].threaded).True()
	gt.Value(t, mock.token).Equal("xoxb-T100")
}

func TestHandleDirectMessageReplies(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	installTeam(t, repo, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo),
		usecase.WithSlackFactory(mock.factory()),
		usecase.WithReplyText("pondering"),
	)

	gt.NoError(t, uc.HandleEvent(ctx, messageEvent("T100", "D77", "im", "U123", ""))).Required()

	gt.Array(t, mock.posts).Length(1)
	gt.Value(t, mock.posts[0].channel).Equal(types.ChannelID("D77"))
	gt.Value(t, mock.posts[0].text).Equal("pondering")
	gt.Bool(t, mock.posts[0].threaded).False()
}

func TestHandleMessageIgnoresOwnAndNonDM(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	installTeam(t, repo, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo), usecase.WithSlackFactory(mock.factory()))

	// from a bot integration
	gt.NoError(t, uc.HandleEvent(ctx, messageEvent("T100", "D77", "im", "U123", "B999")))
	// echo of the bot's own message
	gt.NoError(t, uc.HandleEvent(ctx, messageEvent("T100", "D77", "im", "UBOT", "")))
	// channel message, not a DM
	gt.NoError(t, uc.HandleEvent(ctx, messageEvent("T100", "C42", "channel", "U123", "")))

	gt.Array(t, mock.posts).Length(0)
}

func TestHandleEventUnknownTeamDropped(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo), usecase.WithSlackFactory(mock.factory()))

	// never installed; drop without error so the webhook still acks
	gt.NoError(t, uc.HandleEvent(ctx, mentionEvent("T404", "C1", "")))
	gt.Array(t, mock.posts).Length(0)
}

func TestHandleEventIgnoresUnsupportedType(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	installTeam(t, repo, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo), usecase.WithSlackFactory(mock.factory()))

	event := &slackevents.EventsAPIEvent{
		TeamID: "T100",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: "reaction_added",
			Data: &slackevents.ReactionAddedEvent{},
		},
	}
	gt.NoError(t, uc.HandleEvent(ctx, event))
	gt.Array(t, mock.posts).Length(0)
}

func TestHandleEventWritesEventLog(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	installTeam(t, repo, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(repo, newTestVault(t, repo), usecase.WithSlackFactory(mock.factory()))

	gt.NoError(t, uc.HandleEvent(ctx, mentionEvent("T100", "C42", ""))).Required()

	entries := repo.EventLog()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].TeamID).Equal(types.TeamID("T100"))
	gt.Value(t, entries[0].EventType).Equal(types.EventAppMention)
	gt.Bool(t, entries[0].ID == "").False()
}

type eventLogFailRepo struct {
	*memory.Memory
}

func (x *eventLogFailRepo) PutEventLog(_ context.Context, _ *model.EventLogEntry) error {
	return goerr.New("event log backend unavailable")
}

func TestHandleEventSurvivesEventLogFailure(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	installTeam(t, base, "T100")

	mock := &slackMock{}
	uc := usecase.NewEventUseCases(&eventLogFailRepo{Memory: base}, newTestVault(t, base), usecase.WithSlackFactory(mock.factory()))

	// the log write is best-effort; the reply must still go out
	gt.NoError(t, uc.HandleEvent(ctx, mentionEvent("T100", "C42", ""))).Required()
	gt.Array(t, mock.posts).Length(1)
}
