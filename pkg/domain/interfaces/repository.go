package interfaces

import (
	"context"

	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
)

// Repository defines persistence for installations and the event log.
// All implementations must keep at most one installation per team ID:
// PutInstallation is an upsert, not an insert.
type Repository interface {
	// PutInstallation creates or replaces the installation for its team ID
	// atomically. Two concurrent puts for the same team must not interleave
	// into a half-written record.
	PutInstallation(ctx context.Context, inst *model.Installation) error

	// GetInstallation retrieves an installation by team ID.
	// Returns ErrInstallationNotFound if no record exists.
	GetInstallation(ctx context.Context, teamID types.TeamID) (*model.Installation, error)

	// DeleteInstallation removes the installation if present. Deleting a
	// missing record is not an error.
	DeleteInstallation(ctx context.Context, teamID types.TeamID) error

	// ListInstallations returns all installations (administrative use)
	ListInstallations(ctx context.Context) ([]*model.Installation, error)

	// PutEventLog appends a diagnostic event log entry
	PutEventLog(ctx context.Context, entry *model.EventLogEntry) error

	// Close releases underlying resources
	Close() error
}
