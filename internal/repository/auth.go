package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/atinyakov/herbcatalog/internal/models"
)

// PostgresAuthRepository implements user lookups and seeding using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// FindByUsername returns the user with the given username or models.ErrNotFound.
func (s *PostgresAuthRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, is_admin FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.StorageError("find user", err)
	}
	return &u, nil
}

// CreateUser inserts a user. If the username is taken, the ON CONFLICT DO NOTHING
// clause leaves the existing row alone and models.ErrConflict is returned.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := s.DB.QueryRowContext(
		ctx,
		`INSERT INTO users (username, password_hash, is_admin) VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING RETURNING id`,
		u.Username, u.PasswordHash, u.IsAdmin,
	).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrConflict
	}
	if err != nil {
		return models.StorageError("create user", err)
	}
	return nil
}
