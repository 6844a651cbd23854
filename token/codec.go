package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is structurally malformed or
	// its signature does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token verifies but its embedded
	// expiry has passed.
	ErrExpiredToken = errors.New("expired token")
)

// Claims is the signed claim set for one OTP issuance: the generation
// parameters minus the raw code, plus the registered timestamps. The raw code
// is never embedded, so it cannot be recovered from the token.
type Claims struct {
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm"`
	CharSet   string `json:"charSet"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	jwt.RegisteredClaims
}

// Codec signs claim sets into compact HS256 tokens and verifies them back.
//
// Codec instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec signing with the given server-held secret.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret required")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Sign stamps the claims with a fresh jti, the current issued-at, and an
// expiry of now+ttl, then signs them. No side effects beyond randomness for
// the jti.
func (c *Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	if c == nil {
		return "", errors.New("codec not initialized")
	}
	now := time.Now()
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify decodes and validates a token produced by Sign. Signature and
// structural failures map to [ErrInvalidToken]; a passed embedded expiry maps
// to [ErrExpiredToken].
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	if c == nil {
		return nil, errors.New("codec not initialized")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
