package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// KeySize is the required AES-256 key length in bytes
	KeySize = 32

	nonceSize = 12
)

var (
	// ErrNoEncryptionKey means the vault was constructed without a key.
	// A key-less vault cannot operate; this is a configuration failure.
	ErrNoEncryptionKey = goerr.New("encryption key is not configured")

	// ErrInvalidKeySize means the configured key is not 32 bytes
	ErrInvalidKeySize = goerr.New("encryption key must be 32 bytes")

	// ErrCipherIntegrity means the ciphertext failed authentication: wrong
	// key or tampered data. No plaintext is ever returned in this case.
	ErrCipherIntegrity = goerr.New("ciphertext integrity check failed")
)

// Cipher seals and opens bot tokens with AES-256-GCM. The output layout is
// nonce ‖ ciphertext ‖ tag as one opaque blob; the nonce is freshly random
// for every Encrypt call so it is never reused under the same key.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, ErrNoEncryptionKey
	}
	if len(key) != KeySize {
		return nil, goerr.Wrap(ErrInvalidKeySize, "bad key length", goerr.V("length", len(key)))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCM mode")
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns nonce ‖ ciphertext ‖ tag.
func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, goerr.Wrap(err, "failed to generate nonce")
	}

	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt splits the nonce off the blob, authenticates and opens it.
// Any authentication failure returns ErrCipherIntegrity.
func (c *Cipher) Decrypt(blob []byte) (string, error) {
	if len(blob) < nonceSize+c.aead.Overhead() {
		return "", goerr.Wrap(ErrCipherIntegrity, "blob too short", goerr.V("length", len(blob)))
	}

	nonce, sealed := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", goerr.Wrap(ErrCipherIntegrity, "failed to open ciphertext")
	}

	return string(plaintext), nil
}
