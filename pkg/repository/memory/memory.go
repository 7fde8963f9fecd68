package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/interfaces"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
)

// Memory is an in-memory repository for development and tests. All state is
// lost on restart.
type Memory struct {
	mu            sync.RWMutex
	installations map[types.TeamID]*model.Installation
	eventLog      []*model.EventLogEntry
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		installations: make(map[types.TeamID]*model.Installation),
	}
}

func (r *Memory) PutInstallation(ctx context.Context, inst *model.Installation) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cp := *inst
	if existing, ok := r.installations[inst.TeamID]; ok {
		cp.InstalledAt = existing.InstalledAt
	} else if cp.InstalledAt.IsZero() {
		cp.InstalledAt = now
	}
	cp.UpdatedAt = now
	r.installations[inst.TeamID] = &cp
	return nil
}

func (r *Memory) GetInstallation(ctx context.Context, teamID types.TeamID) (*model.Installation, error) {
	if err := teamID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid team ID")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.installations[teamID]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrInstallationNotFound, "no installation", goerr.V("team_id", teamID))
	}

	cp := *inst
	return &cp, nil
}

func (r *Memory) DeleteInstallation(ctx context.Context, teamID types.TeamID) error {
	if err := teamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.installations, teamID)
	return nil
}

func (r *Memory) ListInstallations(ctx context.Context) ([]*model.Installation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	installations := make([]*model.Installation, 0, len(r.installations))
	for _, inst := range r.installations {
		cp := *inst
		installations = append(installations, &cp)
	}
	return installations, nil
}

func (r *Memory) PutEventLog(ctx context.Context, entry *model.EventLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.eventLog = append(r.eventLog, &cp)
	return nil
}

// EventLog returns a snapshot of logged events (test helper)
func (r *Memory) EventLog() []*model.EventLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*model.EventLogEntry, len(r.eventLog))
	copy(entries, r.eventLog)
	return entries
}

func (r *Memory) Close() error {
	return nil
}
