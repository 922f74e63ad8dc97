package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload carried by a signed session token. The
// user ID rides in the registered subject claim.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenCodec signs and verifies session tokens with a single HMAC
// secret. The zero value is unusable; construct with NewTokenCodec.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) TokenCodec {
	s := make([]byte, len(secret))
	copy(s, secret)
	return TokenCodec{secret: s, ttl: ttl}
}

func (c TokenCodec) Issue(userID, email string, now time.Time) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("token codec not configured")
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Expired, malformed, and wrongly signed tokens all fail.
func (c TokenCodec) Verify(tokenString string) (*SessionClaims, error) {
	if len(c.secret) == 0 {
		return nil, errors.New("token codec not configured")
	}
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("session token missing subject")
	}
	return claims, nil
}
