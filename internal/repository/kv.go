package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Key names one entry inside a visitor namespace. Build keys with the schema
// helpers below rather than from raw strings.
type Key string

const FeedbacksKey Key = "feedbacks"

func RatingKey(itemID string) Key {
	return Key("rating-" + itemID)
}

// Store is a per-namespace string key-value store. Namespaces play the role
// of a browser origin: one per visitor.
type Store interface {
	Get(ctx context.Context, namespace string, key Key) (string, bool, error)
	Set(ctx context.Context, namespace string, key Key, value string) error
}

type KVStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewKVStore(sqlDB *sql.DB, logger zerolog.Logger) *KVStore {
	return &KVStore{
		db:     sqlDB,
		logger: logger,
	}
}

func (s *KVStore) Get(ctx context.Context, namespace string, key Key) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND name = ?`,
		namespace, string(key),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("namespace", namespace).Str("key", string(key)).Msg("failed to read key")
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, namespace string, key Key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (namespace, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		namespace, string(key), value, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("namespace", namespace).Str("key", string(key)).Msg("failed to write key")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	s.logger.Debug().Str("namespace", namespace).Str("key", string(key)).Msg("key written")
	return nil
}
