// Package auth validates identity-provider bearer tokens locally. The
// provider itself is a black box; only its signing secret is shared.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linkfolio/profile-service/internal/ports"
)

type TokenValidator struct {
	secret []byte
	issuer string
}

func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

func (v *TokenValidator) ValidateToken(_ context.Context, token string) (ports.AuthClaims, error) {
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return ports.AuthClaims{}, fmt.Errorf("token invalid")
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return ports.AuthClaims{}, fmt.Errorf("token missing subject")
	}
	out := ports.AuthClaims{UserID: sub, Valid: true}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	return out, nil
}
