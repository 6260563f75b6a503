package users

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/buddylabs/buddy/pkg/errors"
	"github.com/buddylabs/buddy/pkg/types"
)

// TokenClaims are the JWT claims carried by an access token
type TokenClaims struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService issues and validates signed access tokens and handles
// password hashing
type AuthService struct {
	secret []byte
	expiry time.Duration
}

// NewAuthService creates an auth service with the given signing secret
// and token lifetime
func NewAuthService(secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// GenerateToken creates a signed HS256 access token for the account
func (s *AuthService) GenerateToken(accountID, username string) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		AccountID: accountID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			Issuer:    "buddy",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.NewWithCause(types.ErrorTypeInternal, errors.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies an access token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.NewInvalidTokenError()
	}
	return claims, nil
}

// HashPassword hashes a plaintext password with bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.NewWithCause(types.ErrorTypeInternal, errors.ErrCodeInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash
func (s *AuthService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
