package firestore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/model"
)

func (r *Firestore) PutEventLog(ctx context.Context, entry *model.EventLogEntry) error {
	cp := *entry
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	docRef := r.client.Collection(eventLogCollection).Doc(cp.ID)
	if _, err := docRef.Create(ctx, &cp); err != nil {
		return goerr.Wrap(err, "failed to append event log entry",
			goerr.V("team_id", cp.TeamID),
			goerr.V("event_type", cp.EventType),
		)
	}

	return nil
}
