package vault

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/interfaces"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
)

// Credential is a decrypted installation record. The plaintext token lives
// only in the call stack that requested it; nothing here is cached.
type Credential struct {
	TeamID      types.TeamID
	TeamName    string
	BotToken    string
	BotUserID   types.UserID
	Scope       string
	InstalledAt time.Time
	UpdatedAt   time.Time
}

// Vault encrypts bot tokens at rest and persists one installation per
// tenant through the repository.
type Vault struct {
	cipher *Cipher
	repo   interfaces.Repository
}

func New(cipher *Cipher, repo interfaces.Repository) (*Vault, error) {
	if cipher == nil {
		return nil, ErrNoEncryptionKey
	}

	return &Vault{
		cipher: cipher,
		repo:   repo,
	}, nil
}

// Save encrypts the token and upserts the installation keyed by team ID.
func (v *Vault) Save(ctx context.Context, teamID types.TeamID, teamName, botToken string, botUserID types.UserID, scope string) error {
	encrypted, err := v.cipher.Encrypt(botToken)
	if err != nil {
		return goerr.Wrap(err, "failed to encrypt bot token", goerr.V("team_id", teamID))
	}

	inst := &model.Installation{
		TeamID:         teamID,
		TeamName:       teamName,
		EncryptedToken: encrypted,
		BotUserID:      botUserID,
		Scope:          scope,
	}

	if err := v.repo.PutInstallation(ctx, inst); err != nil {
		return goerr.Wrap(err, "failed to persist installation", goerr.V("team_id", teamID))
	}

	return nil
}

// Get retrieves and decrypts the tenant's credential. Returns
// interfaces.ErrInstallationNotFound when the tenant is not installed and
// ErrCipherIntegrity when the stored blob fails authentication.
func (v *Vault) Get(ctx context.Context, teamID types.TeamID) (*Credential, error) {
	inst, err := v.repo.GetInstallation(ctx, teamID)
	if err != nil {
		return nil, err
	}

	botToken, err := v.cipher.Decrypt(inst.EncryptedToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decrypt bot token", goerr.V("team_id", teamID))
	}

	return &Credential{
		TeamID:      inst.TeamID,
		TeamName:    inst.TeamName,
		BotToken:    botToken,
		BotUserID:   inst.BotUserID,
		Scope:       inst.Scope,
		InstalledAt: inst.InstalledAt,
		UpdatedAt:   inst.UpdatedAt,
	}, nil
}

// Delete removes the tenant's installation. Idempotent.
func (v *Vault) Delete(ctx context.Context, teamID types.TeamID) error {
	if err := v.repo.DeleteInstallation(ctx, teamID); err != nil {
		return goerr.Wrap(err, "failed to delete installation", goerr.V("team_id", teamID))
	}
	return nil
}
