package quote

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// shareTokenBytes is the entropy of a share token before encoding.
const shareTokenBytes = 32

// TokenGenerator produces unguessable share tokens.
type TokenGenerator func() (string, error)

// RandomToken returns 32 crypto-random bytes encoded as unpadded base64url.
func RandomToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
