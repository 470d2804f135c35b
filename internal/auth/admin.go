package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/neos-mentors/mentor-queue/internal/config"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

const adminSubject = "admin"

// TokenManager issues and validates admin session JWTs.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 180
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// GenerateToken builds and signs a session JWT.
func (tm *TokenManager) GenerateToken() (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a session JWT.
func (tm *TokenManager) ParseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject != adminSubject {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Admin validates the operator credential and issues session tokens.
type Admin struct {
	passwordHash string
	tokens       *TokenManager
}

// NewAdmin builds the admin authenticator from configuration.
func NewAdmin(cfg config.AuthConfig) *Admin {
	return &Admin{
		passwordHash: cfg.AdminPasswordHash,
		tokens:       NewTokenManager(cfg.JWTSecret, cfg.SessionTTLMinutes),
	}
}

// Login exchanges the admin password for a session token.
func (a *Admin) Login(password string) (string, time.Time, error) {
	if a.passwordHash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("admin login disabled")
	}
	if err := ComparePassword(a.passwordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return a.tokens.GenerateToken()
}

// Tokens exposes the token manager for middleware wiring.
func (a *Admin) Tokens() *TokenManager {
	return a.tokens
}
