package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/interfaces"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS installations (
    team_id         TEXT PRIMARY KEY,
    team_name       TEXT NOT NULL,
    encrypted_token BLOB NOT NULL,
    bot_user_id     TEXT NOT NULL,
    scope           TEXT NOT NULL,
    installed_at    TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
    id         TEXT PRIMARY KEY,
    team_id    TEXT NOT NULL,
    event_type TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_log_team ON event_log (team_id, created_at);
`

// SQLite is a single-file repository backend using the pure-Go sqlite driver.
type SQLite struct {
	db *sql.DB
}

var _ interfaces.Repository = &SQLite{}

// New opens (creating if needed) the database at path and bootstraps the
// schema.
func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	// The driver is not safe for concurrent writes on one connection;
	// serialize through a single connection and rely on WAL for readers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return nil, goerr.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, goerr.Wrap(err, "failed to bootstrap schema", goerr.V("path", path))
	}

	return &SQLite{db: db}, nil
}

func (r *SQLite) PutInstallation(ctx context.Context, inst *model.Installation) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Upsert keyed by team_id: re-installation replaces the record in place
	// and preserves installed_at.
	_, err = tx.ExecContext(ctx, `
        INSERT INTO installations (team_id, team_name, encrypted_token, bot_user_id, scope, installed_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(team_id) DO UPDATE SET
            team_name       = excluded.team_name,
            encrypted_token = excluded.encrypted_token,
            bot_user_id     = excluded.bot_user_id,
            scope           = excluded.scope,
            updated_at      = excluded.updated_at`,
		inst.TeamID.String(), inst.TeamName, inst.EncryptedToken,
		inst.BotUserID.String(), inst.Scope, now, now,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to upsert installation", goerr.V("team_id", inst.TeamID))
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit installation", goerr.V("team_id", inst.TeamID))
	}

	return nil
}

func (r *SQLite) GetInstallation(ctx context.Context, teamID types.TeamID) (*model.Installation, error) {
	if err := teamID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid team ID")
	}

	row := r.db.QueryRowContext(ctx, `
        SELECT team_id, team_name, encrypted_token, bot_user_id, scope, installed_at, updated_at
        FROM installations WHERE team_id = ?`, teamID.String())

	var inst model.Installation
	var tid, botUserID string
	err := row.Scan(&tid, &inst.TeamName, &inst.EncryptedToken, &botUserID, &inst.Scope, &inst.InstalledAt, &inst.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrInstallationNotFound, "no installation", goerr.V("team_id", teamID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query installation", goerr.V("team_id", teamID))
	}

	inst.TeamID = types.TeamID(tid)
	inst.BotUserID = types.UserID(botUserID)
	return &inst, nil
}

func (r *SQLite) DeleteInstallation(ctx context.Context, teamID types.TeamID) error {
	if err := teamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM installations WHERE team_id = ?`, teamID.String()); err != nil {
		return goerr.Wrap(err, "failed to delete installation", goerr.V("team_id", teamID))
	}
	return nil
}

func (r *SQLite) ListInstallations(ctx context.Context) ([]*model.Installation, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT team_id, team_name, encrypted_token, bot_user_id, scope, installed_at, updated_at
        FROM installations ORDER BY team_id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list installations")
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var installations []*model.Installation
	for rows.Next() {
		var inst model.Installation
		var tid, botUserID string
		if err := rows.Scan(&tid, &inst.TeamName, &inst.EncryptedToken, &botUserID, &inst.Scope, &inst.InstalledAt, &inst.UpdatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan installation row")
		}
		inst.TeamID = types.TeamID(tid)
		inst.BotUserID = types.UserID(botUserID)
		installations = append(installations, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate installation rows")
	}

	return installations, nil
}

func (r *SQLite) PutEventLog(ctx context.Context, entry *model.EventLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO event_log (id, team_id, event_type, payload, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TeamID.String(), entry.EventType.String(), entry.Payload, createdAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert event log entry", goerr.V("team_id", entry.TeamID))
	}
	return nil
}

func (r *SQLite) Close() error {
	if err := r.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close sqlite database")
	}
	return nil
}
