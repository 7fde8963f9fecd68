package model

import (
	"time"

	"github.com/ponderbot/ponder/pkg/domain/types"
)

// EventLogEntry is an append-only diagnostic record of a received event.
// Writes are best-effort: a failed insert must never fail the webhook
// request that produced it.
type EventLogEntry struct {
	ID        string          `firestore:"id" json:"id"`
	TeamID    types.TeamID    `firestore:"team_id" json:"team_id"`
	EventType types.EventType `firestore:"event_type" json:"event_type"`
	Payload   string          `firestore:"payload" json:"payload"`
	CreatedAt time.Time       `firestore:"created_at" json:"created_at"`
}
