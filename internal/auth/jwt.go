package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// JWTManager issues and validates HS256 access tokens. The role claim
// decides whether a caller may use the admin lookup surface.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GenerateAccessToken creates a signed token with the user ID as subject.
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, role domain.Role) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken adapts ValidateAccessToken to the HTTP auth middleware.
func (m *JWTManager) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	userID, role, err := m.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, string(role), nil
}

// ValidateAccessToken parses a token and returns its subject and role.
// Unknown role claims are downgraded to RoleUser.
func (m *JWTManager) ValidateAccessToken(tokenString string) (uuid.UUID, domain.Role, error) {
	if tokenString == "" {
		return uuid.Nil, "", errors.New("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid subject UUID: %w", err)
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return userID, role, nil
}
