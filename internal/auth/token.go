package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seein-app/seein-backend/internal/shared"
)

// TokenIssuer mints and decodes stateless bearer tokens. Expiry is the only
// termination mechanism; there is no revocation list.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

// NewTokenIssuer constructs an issuer signing HS256 tokens with the given
// lifetime. Leeway widens expiry checks to tolerate clock skew.
func NewTokenIssuer(secret string, ttl, leeway time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, leeway: leeway}
}

// TTL returns the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue produces a signed token whose subject is the normalized email.
func (i *TokenIssuer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Decode verifies the signature and expiry and returns the embedded subject.
// All failures collapse to shared.ErrUnauthorized.
func (i *TokenIssuer) Decode(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithLeeway(i.leeway), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", shared.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", shared.ErrUnauthorized
	}
	return claims.Subject, nil
}
