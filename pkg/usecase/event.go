package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/interfaces"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
	slacksvc "github.com/ponderbot/ponder/pkg/service/slack"
	"github.com/ponderbot/ponder/pkg/service/vault"
	"github.com/ponderbot/ponder/pkg/utils/errutil"
	"github.com/ponderbot/ponder/pkg/utils/logging"
	"github.com/slack-go/slack/slackevents"
)

// DefaultReplyText is the canned response posted for mentions and DMs
const DefaultReplyText = "thinking"

// EventUseCases routes verified webhook events to the tenant's workspace.
type EventUseCases struct {
	repo      interfaces.Repository
	vault     *vault.Vault
	newSlack  slacksvc.Factory
	replyText string
}

// EventOption is a functional option for EventUseCases
type EventOption func(*EventUseCases)

// WithReplyText overrides the canned reply text
func WithReplyText(text string) EventOption {
	return func(uc *EventUseCases) {
		if text != "" {
			uc.replyText = text
		}
	}
}

// WithSlackFactory overrides how tenant-scoped Slack clients are built (tests)
func WithSlackFactory(factory slacksvc.Factory) EventOption {
	return func(uc *EventUseCases) {
		uc.newSlack = factory
	}
}

func NewEventUseCases(repo interfaces.Repository, v *vault.Vault, opts ...EventOption) *EventUseCases {
	uc := &EventUseCases{
		repo:      repo,
		vault:     v,
		newSlack:  slacksvc.New,
		replyText: DefaultReplyText,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// HandleEvent processes one verified Events API callback. The event log
// write is best-effort; an unknown tenant drops the event without error.
// Handlers post messages but never mutate installations or the event log.
func (uc *EventUseCases) HandleEvent(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	logger := logging.From(ctx)
	teamID := types.TeamID(event.TeamID)

	uc.logEvent(ctx, teamID, event)

	cred, err := uc.vault.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, interfaces.ErrInstallationNotFound) {
			logger.Warn("event for unknown team, dropping", "team_id", teamID)
			return nil
		}
		return goerr.Wrap(err, "failed to resolve tenant credential", goerr.V("team_id", teamID))
	}

	svc, err := uc.newSlack(cred.BotToken)
	if err != nil {
		return goerr.Wrap(err, "failed to build tenant slack client", goerr.V("team_id", teamID))
	}

	switch data := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		return uc.handleMention(ctx, svc, data)

	case *slackevents.MessageEvent:
		return uc.handleMessage(ctx, svc, data, cred.BotUserID)

	default:
		logger.Info("ignoring unsupported event type",
			"team_id", teamID,
			"inner_type", event.InnerEvent.Type,
		)
		return nil
	}
}

// logEvent appends a diagnostic entry. Failures are logged and swallowed so
// they never abort event handling.
func (uc *EventUseCases) logEvent(ctx context.Context, teamID types.TeamID, event *slackevents.EventsAPIEvent) {
	payload, err := json.Marshal(event.InnerEvent.Data)
	if err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to marshal event payload"), "event log serialization failed")
		payload = []byte("{}")
	}

	entry := &model.EventLogEntry{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		EventType: types.EventType(event.InnerEvent.Type),
		Payload:   string(payload),
	}

	if err := uc.repo.PutEventLog(ctx, entry); err != nil {
		errutil.Handle(ctx, err, "failed to append event log entry")
	}
}

// handleMention replies in the thread the bot was mentioned in.
func (uc *EventUseCases) handleMention(ctx context.Context, svc slacksvc.Service, event *slackevents.AppMentionEvent) error {
	if err := svc.PostThreadReply(ctx, types.ChannelID(event.Channel), event.ThreadTimeStamp, uc.replyText); err != nil {
		return goerr.Wrap(err, "failed to reply to mention", goerr.V("channel", event.Channel))
	}
	return nil
}

// handleMessage replies to direct messages that did not come from the bot
// itself. Everything else is a no-op.
func (uc *EventUseCases) handleMessage(ctx context.Context, svc slacksvc.Service, event *slackevents.MessageEvent, botUserID types.UserID) error {
	if event.BotID != "" || types.UserID(event.User) == botUserID {
		return nil
	}

	if event.ChannelType != "im" {
		return nil
	}

	if err := svc.PostMessage(ctx, types.ChannelID(event.Channel), uc.replyText); err != nil {
		return goerr.Wrap(err, "failed to reply to direct message", goerr.V("channel", event.Channel))
	}
	return nil
}
