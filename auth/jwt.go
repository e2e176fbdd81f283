// Package auth provides JWT-based request authentication. Tokens carry
// the owner identity every scheduled-search operation is scoped to.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odsconseil/bms/errors"
)

const issuer = "bms"

// Claims identifies an authenticated caller.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// jwtClaims extends the registered claims with BMS fields.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// JWTManager signs and validates access tokens.
type JWTManager struct {
	secret      []byte
	tokenExpiry time.Duration
}

// NewJWTManager creates a manager for the given secret. An empty secret
// gets a generated one, which only holds for the process lifetime.
func NewJWTManager(secret string, tokenExpiry time.Duration) (*JWTManager, error) {
	if secret == "" {
		generated, err := generateSecureSecret(32)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate JWT secret")
		}
		secret = generated
	}

	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}

	return &JWTManager{secret: []byte(secret), tokenExpiry: tokenExpiry}, nil
}

// GenerateToken creates a signed access token for the given claims.
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
		UserID: claims.UserID,
		Email:  claims.Email,
	})
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a token, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("token carries no user identity")
	}

	return &Claims{UserID: userID, Email: claims.Email}, nil
}

// TokenExpiry returns the configured token lifetime.
func (m *JWTManager) TokenExpiry() time.Duration {
	return m.tokenExpiry
}

func generateSecureSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	return hex.EncodeToString(b), nil
}
