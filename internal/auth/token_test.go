package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seein-app/seein-backend/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 0)

	token, err := issuer.Issue("user@example.com")
	require.NoError(t, err)

	subject, err := issuer.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", subject)
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute, 0)

	token, err := issuer.Issue("user@example.com")
	require.NoError(t, err)

	_, err = issuer.Decode(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenLeewayToleratesSkew(t *testing.T) {
	strict := NewTokenIssuer("secret", -time.Minute, 0)
	lenient := NewTokenIssuer("secret", -time.Minute, 5*time.Minute)

	token, err := strict.Issue("user@example.com")
	require.NoError(t, err)

	subject, err := lenient.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", subject)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 0)
	other := NewTokenIssuer("different", time.Hour, 0)

	token, err := issuer.Issue("user@example.com")
	require.NoError(t, err)

	_, err = other.Decode(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenGarbageRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 0)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Decode(tok)
		require.ErrorIs(t, err, shared.ErrUnauthorized)
	}
}
