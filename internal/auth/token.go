package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// AssertionVerifier checks the signed assertion the single sign-on provider
// hands back on the login callback.
type AssertionVerifier struct {
	secret []byte
	ttl    time.Duration
}

// NewAssertionVerifier builds a verifier for HS256 assertions.
func NewAssertionVerifier(secret string, ttl time.Duration) *AssertionVerifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AssertionVerifier{secret: []byte(secret), ttl: ttl}
}

// Issue signs an assertion for username the way the provider does.
func (v *AssertionVerifier) Issue(username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(v.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the assertion and returns the normalized username.
func (v *AssertionVerifier) Verify(assertion string) (string, error) {
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(assertion), &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid assertion claims")
	}
	username := domain.NormalizeEmail(claims.Subject)
	if username == "" {
		return "", errors.New("assertion has no subject")
	}
	return username, nil
}
