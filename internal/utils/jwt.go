package utils // package utils provides helpers for password hashing and identity tokens

import (
    "errors" // sentinel error for rejected tokens
    "fmt"    // error wrapping
    "time"   // issued-at and expiry timestamps

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned for any token that cannot be trusted: bad
// signature, unexpected algorithm, malformed payload, missing subject or
// an expired exp claim.
var ErrInvalidToken = errors.New("invalid token")

// NewToken builds and signs an HS256 JWT asserting username as its subject.
// A ttl of zero or less omits the exp claim, so the token never expires.
func NewToken(secret, username string, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    claims := jwt.RegisteredClaims{
        Subject:  username,
        IssuedAt: jwt.NewNumericDate(now),
    }
    if ttl > 0 {
        claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return "", fmt.Errorf("sign token: %w", err)
    }
    return signed, nil
}

// ParseToken validates raw against secret and returns the subject username.
// Only HMAC-SHA256 is accepted; the expected algorithm is pinned so a token
// signed with "none" or an asymmetric key is rejected.
func ParseToken(secret, raw string) (string, error) {
    claims := &jwt.RegisteredClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    if !tok.Valid || claims.Subject == "" {
        return "", ErrInvalidToken
    }
    return claims.Subject, nil
}
