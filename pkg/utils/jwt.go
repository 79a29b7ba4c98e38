package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"academic-erp/pkg/models"
)

// TokenTTL is the lifetime of an issued bearer token.
const TokenTTL = 24 * time.Hour

// JWTService issues and validates HS256 bearer tokens keyed by employee email.
type JWTService struct {
	secretKey []byte
}

// NewJWTService creates a JWT service with the given signing secret.
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{secretKey: []byte(secretKey)}
}

// GenerateToken issues a token for the given employee email.
func (j *JWTService) GenerateToken(email string) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Email: email,
		Exp:   now.Add(TokenTTL).Unix(),
		Iat:   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token string, verifies its signature and expiry, and
// returns the claims.
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}
