package security

import "time"

// NewTestTokenCodec returns a TokenCodec with fixed test secrets.
// For unit tests only.
func NewTestTokenCodec() *TokenCodec {
	c, err := NewTokenCodec(TokenCodecConfig{
		Issuer:        "test-issuer",
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		panic(err)
	}
	return c
}

// SetClock replaces the codec's time source. For tests only.
func (c *TokenCodec) SetClock(now func() time.Time) {
	c.now = now
}
