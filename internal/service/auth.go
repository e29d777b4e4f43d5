package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/auth"
	"github.com/atinyakov/herbcatalog/internal/models"
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// FindByUsername returns the user or models.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateUser inserts a user, returning models.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u *models.User) error
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(subject string, privileged bool) (string, error)
}

// AuthService implements login and admin seeding.
type AuthService struct {
	repo   AuthRepository
	tokens TokenIssuer
	log    *zap.Logger
}

// NewAuthService constructs a new AuthService using the provided repository and token issuer.
func NewAuthService(repo AuthRepository, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{repo: repo, tokens: tokens, log: log}
}

// Login checks the credentials and returns a session token carrying the
// admin role for privileged users. Unknown users and wrong passwords both
// yield models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return "", models.ErrInvalidCredentials
	}
	return s.tokens.Issue(u.Username, u.IsAdmin)
}

// SeedAdmin creates a privileged user. An existing username is logged and
// left untouched; created is false in that case.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) (created bool, err error) {
	if len(password) > auth.MaxPasswordBytes {
		s.log.Warn("password longer than bcrypt limit, extra bytes are ignored",
			zap.Int("limit", auth.MaxPasswordBytes))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	err = s.repo.CreateUser(ctx, &models.User{Username: username, PasswordHash: hash, IsAdmin: true})
	if errors.Is(err, models.ErrConflict) {
		s.log.Info("admin user exists", zap.String("username", username))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.log.Info("admin user created", zap.String("username", username))
	return true, nil
}
