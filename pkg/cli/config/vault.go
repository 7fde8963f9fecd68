package config

import (
	"encoding/hex"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/service/vault"
	"github.com/urfave/cli/v3"
)

// Vault holds CLI flags for the credential encryption key
type Vault struct {
	encryptionKey string
}

func (x *Vault) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "encryption-key",
			Usage:       "Hex-encoded 256-bit key for credential encryption (64 hex chars)",
			Category:    "Vault",
			Destination: &x.encryptionKey,
			Sources:     cli.EnvVars("PONDER_ENCRYPTION_KEY"),
		},
	}
}

func (x Vault) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("encryption-key.len", len(x.encryptionKey)),
	)
}

// Configure decodes and validates the key, and builds the cipher. A missing
// or malformed key is a startup failure, never a runtime fallback.
func (x *Vault) Configure() (*vault.Cipher, error) {
	if x.encryptionKey == "" {
		return nil, goerr.Wrap(vault.ErrNoEncryptionKey, "encryption-key is required")
	}

	key, err := hex.DecodeString(x.encryptionKey)
	if err != nil {
		return nil, goerr.Wrap(err, "encryption-key must be hex encoded")
	}

	cipher, err := vault.NewCipher(key)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid encryption key")
	}

	return cipher, nil
}
