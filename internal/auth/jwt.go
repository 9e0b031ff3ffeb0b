// ABOUTME: Access-token verification and minting for CHWOne sessions.
// ABOUTME: Always enforces HS256, issuer, and expiration; never call jwt.Parse directly.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim on every CHWOne access token.
const Issuer = "chwone"

// ErrEmptySecret is returned when an access token would be signed or verified
// with an empty HMAC key, which anyone could forge.
var ErrEmptySecret = errors.New("empty signing secret")

// AccessClaims holds the claims embedded in an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	// UserID shadows RegisteredClaims.Subject (json:"sub") so that the
	// subject decodes directly into a UUID.
	UserID uuid.UUID `json:"sub"`
}

// IssueAccessToken creates a signed HS256 access token for userID.
// Sessions are normally minted by the hosting platform's sign-in flow; this
// is used by the issue-token operator command and by tests.
func IssueAccessToken(secret []byte, userID uuid.UUID, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("sign access token: %w", ErrEmptySecret)
	}
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates and parses an HS256 access token.
// Returns an error if the token is expired, uses another algorithm, carries a
// foreign issuer, or has no subject.
func ParseAccessToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("parse access token: %w", ErrEmptySecret)
	}
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("parse access token: missing subject")
	}
	return claims, nil
}
