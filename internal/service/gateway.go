package service

import (
	"errors"
	"time"

	"github.com/iliyamo/messagely/internal/utils"
)

// AuthGateway mints and verifies identity tokens. Verification is
// stateless; there is no session table.
type AuthGateway struct {
	secret string
	ttl    time.Duration
}

// NewAuthGateway builds a gateway. A ttl of zero issues tokens without an
// expiry, which keeps clients simple but means a leaked token stays valid
// until the secret rotates.
func NewAuthGateway(secret string, ttl time.Duration) (*AuthGateway, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &AuthGateway{secret: secret, ttl: ttl}, nil
}

// IssueToken signs a token asserting username.
func (g *AuthGateway) IssueToken(username string) (string, error) {
	if username == "" {
		return "", errors.New("cannot issue token for empty username")
	}
	return utils.NewToken(g.secret, username, g.ttl)
}

// VerifyToken returns the username asserted by raw or ErrInvalidToken.
func (g *AuthGateway) VerifyToken(raw string) (string, error) {
	return utils.ParseToken(g.secret, raw)
}
