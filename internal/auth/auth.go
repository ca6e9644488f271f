// Package auth handles owner credentials and access tokens. Passwords are
// bcrypt hashes; access tokens are HS256 JWTs carrying the identity fields the
// ledger scopes by.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mukisa/dukabook/internal/domain"
)

const (
	bcryptCost = 12
	issuer     = "dukabook"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Claims are the custom claims in access tokens.
type Claims struct {
	Sub          string `json:"sub"`
	BusinessName string `json:"business_name,omitempty"`
	Currency     string `json:"currency,omitempty"`
	jwt.RegisteredClaims
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored hash. Any
// mismatch reports ErrInvalidCredentials without detail.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// TokenSigner issues and validates access tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, errors.New("auth: JWT secret must be set")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}, nil
}

// Sign issues an access token for the user.
func (s *TokenSigner) Sign(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:          u.ID,
		BusinessName: u.BusinessName,
		Currency:     u.Currency,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies an access token, returning its claims.
func (s *TokenSigner) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Sub == "" {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// TTL reports the configured token lifetime.
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}
