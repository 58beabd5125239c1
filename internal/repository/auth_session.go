package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"happy-game/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

// AuthSessionRepository binds visitor session ids to signed-in users.
type AuthSessionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAuthSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *AuthSessionRepository {
	return &AuthSessionRepository{db: sqlDB, logger: logger}
}

func (r *AuthSessionRepository) Bind(ctx context.Context, sid, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (sid, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (sid) DO UPDATE SET
			user_id = excluded.user_id,
			created_at = excluded.created_at`,
		sid, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to bind session: %w", err)
	}
	r.logger.Debug().Str("sid", sid).Str("user_id", userID).Msg("session bound")
	return nil
}

func (r *AuthSessionRepository) Unbind(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE sid = ?`, sid); err != nil {
		return fmt.Errorf("failed to unbind session: %w", err)
	}
	r.logger.Debug().Str("sid", sid).Msg("session unbound")
	return nil
}

// UserFor returns the user signed in on sid, or ErrNotFound for an anonymous visitor.
func (r *AuthSessionRepository) UserFor(ctx context.Context, sid string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.provider, u.created_at, u.updated_at
		FROM auth_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.sid = ?`, sid,
	).Scan(&user.ID, &user.Email, &user.Provider, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return &user, nil
}
