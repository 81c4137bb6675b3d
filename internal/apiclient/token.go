package apiclient

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeStudent is the token_type claim carried by student access tokens.
const TokenTypeStudent = "student"

// Claims mirrors the access token issued by the exam platform to students.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	ClassID   int    `json:"class_id,omitempty"`
}

// ParseClaims reads the claims of a student bearer token without verifying its
// signature. The agent never holds the signing key; the exam API verifies the
// token on every call. The claims only scope local backups to the student.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.TokenType != TokenTypeStudent {
		return nil, fmt.Errorf("token type %q is not a student token", claims.TokenType)
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token carries no user_id")
	}
	return claims, nil
}
