package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Hour)

	token, err := s.Issue("sid-1", "admin")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.Issue("sid-1", "admin")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_WrongKey(t *testing.T) {
	token, err := NewSigner([]byte("one"), time.Hour).Issue("sid-1", "admin")
	require.NoError(t, err)

	_, err = NewSigner([]byte("two"), time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewSigner([]byte("k"), time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_MissingSessionID(t *testing.T) {
	s := NewSigner([]byte("k"), time.Hour)
	token, err := s.Issue("", "admin")
	require.NoError(t, err)

	_, err = s.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_Garbage(t *testing.T) {
	_, err := NewSigner([]byte("k"), time.Hour).Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
