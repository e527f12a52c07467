package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSignature is returned when a token is malformed, signed with
	// the wrong key, or minted for a different kind.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when a token's expiry is at or before now.
	ErrTokenExpired = errors.New("token expired")
)

// Kind distinguishes access tokens from refresh tokens. Each kind has its
// own secret, audience and lifetime so one can never be accepted as the other.
type Kind int

const (
	KindAccess Kind = iota + 1
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Claims is the payload carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// TokenCodecConfig configures a TokenCodec.
type TokenCodecConfig struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec mints and verifies HS256 JWTs.
type TokenCodec struct {
	issuer string
	keys   map[Kind]kindKey
	now    func() time.Time
}

type kindKey struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec validates cfg and returns a codec. Both secrets are required
// and must differ.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token codec: access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("token codec: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token codec: lifetimes must be positive")
	}
	return &TokenCodec{
		issuer: cfg.Issuer,
		keys: map[Kind]kindKey{
			KindAccess:  {secret: cfg.AccessSecret, ttl: cfg.AccessTTL},
			KindRefresh: {secret: cfg.RefreshSecret, ttl: cfg.RefreshTTL},
		},
		now: time.Now,
	}, nil
}

// TTL returns the configured lifetime for kind.
func (c *TokenCodec) TTL(kind Kind) time.Duration {
	return c.keys[kind].ttl
}

// Mint signs a token of the given kind for subject. It returns the token and
// its expiry. Every token carries a random jti so two tokens minted within
// the same second differ.
func (c *TokenCodec) Mint(subject, email, role string, kind Kind) (string, time.Time, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("mint: unknown token kind %d", kind)
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := c.now().UTC()
	exp := jwt.NewNumericDate(now.Add(key.ttl))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{kind.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Email:     email,
		Role:      role,
		TokenType: kind.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

// Verify checks signature, issuer, audience and expiry of token for kind.
// It fails with ErrTokenExpired or ErrInvalidSignature.
func (c *TokenCodec) Verify(token string, kind Kind) (*Claims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return nil, ErrInvalidSignature
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(kind.String()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidSignature
	}
	if !parsed.Valid || claims.TokenType != kind.String() || claims.Subject == "" {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
