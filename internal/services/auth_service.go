package services

import (
	"tripvote/config"
	tripvote_errors "tripvote/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService validates access tokens issued by the platform's auth service.
// Token issuance, refresh and user credentials live outside this module; all
// we need here is the voter's identity.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{jwtSecret: []byte(cfg.JWTSecret)}
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(token string) (*AccessClaims, error) {
	if token == "" {
		return nil, tripvote_errors.ErrUnauthorized
	}

	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, tripvote_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, tripvote_errors.ErrUnauthorized
	}
	return claims, nil
}
