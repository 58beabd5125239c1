package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"happy-game/internal/domain"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: sqlDB, logger: logger}
}

// Create inserts a password user. ErrAlreadyExists is returned for a taken email.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Provider:  "password",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, passwordHash, user.Provider, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		r.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByEmail returns the user and its password hash (empty for federated users).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	var (
		user domain.User
		hash string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, provider, created_at, updated_at
		FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &hash, &user.Provider, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	return &user, hash, nil
}

// UpsertFederated returns the user for email, creating a federated account on first sight.
func (r *UserRepository) UpsertFederated(ctx context.Context, email, provider string) (*domain.User, error) {
	user, _, err := r.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Email, user.Provider, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	// a concurrent insert may have won the race
	user, _, err = r.GetByEmail(ctx, email)
	return user, err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
