package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sportsbook-backend/internal/config"
)

const adminRole = "admin"

type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and checks admin tokens. Players are identified by
// username on every call and never get a token.
type JWTService struct {
	secret        []byte
	expiry        time.Duration
	adminUsername string
	adminPassword string
	now           func() time.Time
}

func NewJWTService(cfg *config.Config) *JWTService {
	expiry := cfg.JWTExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTService{
		secret:        []byte(cfg.JWTSecret),
		expiry:        expiry,
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		now:           time.Now,
	}
}

// AdminLogin checks the configured admin credentials and returns a signed
// token.
func (s *JWTService) AdminLogin(username, password string) (string, error) {
	if s.adminPassword == "" {
		return "", ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	return s.GenerateToken(username)
}

func (s *JWTService) GenerateToken(username string) (string, error) {
	now := s.now()
	claims := AdminClaims{
		Username: username,
		Role:     adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != adminRole {
		return nil, errors.New("token is not an admin token")
	}
	return claims, nil
}
