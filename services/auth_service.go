package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
)

// UserRepository is the store-side contract for authentication. Implemented
// by database.UserRepo.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int) (bool, error)
}

// Claims embeds the registered JWT claims plus the user's email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// LoginResult carries the signed token and the public user shape.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// AuthService verifies credentials and issues signed tokens. It never
// distinguishes an unknown email from a wrong password in its responses.
type AuthService struct {
	users    UserRepository
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

func NewAuthService(users UserRepository, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   log.With().Str("serviceName", "authService").Logger(),
	}
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plain-text password matches the stored
// hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login authenticates credentials and returns a signed token embedding the
// subject ID and issue/expiry timestamps.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Warn().Str("email", email).Msg("Login attempt for non-existent email")
		return nil, errs.NewUnauthorizedError("invalid email or password")
	}
	if !user.IsActive {
		s.logger.Warn().Str("email", email).Msg("Login attempt for inactive account")
		return nil, errs.NewUnauthorizedError("invalid email or password")
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.logger.Warn().Str("email", email).Msg("Failed login attempt")
		return nil, errs.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to issue token", err)
	}

	if _, err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.logger.Error().Err(err).Int("userID", user.ID).Msg("Failed to update last login")
	}

	s.logger.Info().Str("email", email).Msg("Successful login")
	return &LoginResult{Token: token, User: user.Public()}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates a signed token and returns its claims.
func (s *AuthService) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errs.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errs.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}
