// Package auth covers the ambient security concerns of the relay: envelope
// tokens identifying the sender, PIN hashing for the directory, and the
// capability gate over participant roles.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"floorlink/domain"
)

// Claims is the payload carried by an envelope token. The participant id it
// names is the only trusted source of the sender identity: ids embedded in
// action payloads are never believed.
type Claims struct {
	ParticipantID string   `json:"participant_id"`
	Roles         []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates envelope tokens (HS256).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed token for a participant.
func (t *TokenIssuer) Generate(id domain.ParticipantID, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ParticipantID: string(id),
		Roles:         roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "floorlink",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses and checks signature and expiration of a token string.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.ParticipantID == "" {
		return nil, fmt.Errorf("token without participant id: %w", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
