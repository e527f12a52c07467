package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// PrehashRefreshToken returns the hex SHA-256 digest of token. bcrypt only
// reads the first 72 bytes of its input and refresh JWTs for the same user
// share a long common prefix, so the digest is what gets bcrypt-hashed.
func PrehashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// HashRefreshToken returns the salted hash stored on a session for token.
func (h *Hasher) HashRefreshToken(ctx context.Context, token string) (string, error) {
	return h.Hash(ctx, []byte(PrehashRefreshToken(token)))
}

// RefreshTokenMatches reports whether token corresponds to storedHash.
// A mismatch is (false, nil); other errors (malformed hash, cancelled
// context) are returned.
func (h *Hasher) RefreshTokenMatches(ctx context.Context, token, storedHash string) (bool, error) {
	err := h.Compare(ctx, storedHash, []byte(PrehashRefreshToken(token)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrMismatch) {
		return false, nil
	}
	return false, err
}
