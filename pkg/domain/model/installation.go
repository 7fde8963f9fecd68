package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/types"
)

// Installation is one tenant's persisted record. EncryptedToken is the
// AES-GCM sealed bot token with the 12-byte nonce prepended; the repository
// layer never sees the plaintext.
type Installation struct {
	TeamID         types.TeamID `firestore:"team_id" json:"team_id"`
	TeamName       string       `firestore:"team_name" json:"team_name"`
	EncryptedToken []byte       `firestore:"encrypted_token" json:"-"`
	BotUserID      types.UserID `firestore:"bot_user_id" json:"bot_user_id"`
	Scope          string       `firestore:"scope" json:"scope"`
	InstalledAt    time.Time    `firestore:"installed_at" json:"installed_at"`
	UpdatedAt      time.Time    `firestore:"updated_at" json:"updated_at"`
}

// Validate checks if the Installation is valid
func (x *Installation) Validate() error {
	if err := x.TeamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}
	if len(x.EncryptedToken) == 0 {
		return goerr.New("encrypted token is required", goerr.V("team_id", x.TeamID))
	}
	return nil
}
