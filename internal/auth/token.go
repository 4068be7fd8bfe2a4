package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenType is the only token_type the codec issues or accepts.
const AccessTokenType = "access"

var (
	// ErrTokenExpired means the signature was valid but exp has passed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenMalformed covers every other decode failure.
	ErrTokenMalformed = errors.New("auth: token malformed")
)

// Claims is the access token payload.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	LastLogin string `json:"last_login,omitempty"`
	jwt.RegisteredClaims
}

// TokenExtras carries optional claims.
type TokenExtras struct {
	LastLogin *time.Time
}

// Codec signs and verifies HS256 access tokens.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a codec over a symmetric secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// WithClock overrides the verification clock.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Encode issues a signed access token for subject.
func (c *Codec) Encode(subject string, issuedAt, expiresAt time.Time, extra TokenExtras) (string, error) {
	claims := Claims{
		UserID:    subject,
		TokenType: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if extra.LastLogin != nil {
		claims.LastLogin = extra.LastLogin.UTC().Format(LastLoginLayout)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry and returns the claims.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid || claims.TokenType != AccessTokenType {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
