package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// TeamID identifies one installed Slack workspace (tenant).
type TeamID string

// Validate checks if the TeamID is valid
func (t TeamID) Validate() error {
	if t == "" {
		return goerr.New("team ID cannot be empty")
	}
	return nil
}

// String returns the string representation of TeamID
func (t TeamID) String() string {
	return string(t)
}

// ChannelID identifies a Slack channel
type ChannelID string

// String returns the string representation of ChannelID
func (c ChannelID) String() string {
	return string(c)
}

// UserID identifies a Slack user
type UserID string

// String returns the string representation of UserID
func (u UserID) String() string {
	return string(u)
}

// EventType is the inner event type of a Slack Events API callback
type EventType string

const (
	EventAppMention EventType = "app_mention"
	EventMessage    EventType = "message"
)

// String returns the string representation of EventType
func (e EventType) String() string {
	return string(e)
}
