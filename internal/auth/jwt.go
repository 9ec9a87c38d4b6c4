package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

// DefaultTokenTTL is how long an issued token stays valid. Tokens are
// stateless: there is no revocation list, and a password change does not
// invalidate tokens issued earlier.
const DefaultTokenTTL = 7 * 24 * time.Hour

// GenerateToken issues a signed HS256 token carrying the user id as its
// subject and an expiration ttl from now.
func GenerateToken(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a bearer token and returns the embedded user id.
// Missing, malformed, badly signed and expired tokens all map to the same
// AuthError so the boundary can answer 401 uniformly.
func ParseToken(tokenString string, secret []byte) (int64, error) {
	if tokenString == "" {
		return 0, &core.AuthError{Msg: "Missing token"}
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method: " + t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, &core.AuthError{Msg: "Invalid or expired token"}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, &core.AuthError{Msg: "Invalid or expired token"}
	}
	return userID, nil
}
