package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"corpchat/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and validates signed resume tokens. A client that
// holds a valid token can re-authenticate after a reconnect without
// resending its password.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
}

// NewTokenIssuer builds an issuer from the configured secret.
// The secret is loaded from the environment, never hardcoded.
func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT bound to a username.
func (t *TokenIssuer) Generate(username string) (string, error) {
	expirationTime := time.Now().Add(t.duration)

	claims := &CustomClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "corpchat",
		},
	}

	// HS256 (HMAC with SHA256) signed with the server's secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses and validates the signature and expiration of a JWT
// string, returning the username it is bound to.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", errors.ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims.Username, nil
	}
	return "", errors.ErrTokenInvalid
}
