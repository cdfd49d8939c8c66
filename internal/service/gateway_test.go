package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGateway_RoundTrip(t *testing.T) {
	g, err := NewAuthGateway("s3cret", 0)
	require.NoError(t, err)

	tok, err := g.IssueToken("alice")
	require.NoError(t, err)

	who, err := g.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", who)
}

func TestAuthGateway_Rejects(t *testing.T) {
	g, err := NewAuthGateway("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewAuthGateway("other", time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssueToken("alice")
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := g.VerifyToken(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthGateway_Expired(t *testing.T) {
	g, err := NewAuthGateway("s3cret", time.Hour)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = g.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthGateway_Errors(t *testing.T) {
	_, err := NewAuthGateway("", 0)
	assert.Error(t, err)

	g, err := NewAuthGateway("s", 0)
	require.NoError(t, err)
	_, err = g.IssueToken("")
	assert.Error(t, err)
}
