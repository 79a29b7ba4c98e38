package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued bearer token back to the caller.
type TokenResponse struct {
	Token      string `json:"token"`
	Email      string `json:"email,omitempty"`
	IsOutreach bool   `json:"isOutreach"`
}

// UserInfoRequest posts a token to the user-info endpoint.
type UserInfoRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserInfo is the profile returned for a valid token.
type UserInfo struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Department string `json:"department,omitempty"`
	IsOutreach bool   `json:"isOutreach"`
}

// OAuthExchangeRequest carries the authorization code and state returned by
// the identity provider.
type OAuthExchangeRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state"`
}

// TokenClaims represents the JWT token claims. The subject is the employee
// email.
type TokenClaims struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims interface
func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetNotBefore implements jwt.Claims interface
func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims interface
func (c *TokenClaims) GetIssuer() (string, error) {
	return "", nil
}

// GetSubject implements jwt.Claims interface
func (c *TokenClaims) GetSubject() (string, error) {
	return c.Email, nil
}

// GetAudience implements jwt.Claims interface
func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
