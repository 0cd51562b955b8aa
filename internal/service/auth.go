package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobscoutbot/jobscout/internal/auth"
)

const adminUsername = "admin"

// ErrInvalidCredentials masks every login failure mode.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService validates the operator credential and issues tokens.
// There is a single admin account whose bcrypt hash comes from config.
type AuthService struct {
	passwordHash string
	jwt          *auth.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(passwordHash string, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{passwordHash: passwordHash, jwt: jwtManager}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if username != adminUsername || s.passwordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateToken(adminUsername, adminUsername, "admin")
}
