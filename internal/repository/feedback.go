package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"happy-game/internal/domain"
	"sync"

	"github.com/rs/zerolog"
)

// FeedbackRepository stores a visitor's feedback list as one JSON array under
// the feedbacks key, rewritten in full on every append.
type FeedbackRepository struct {
	kv     Store
	logger zerolog.Logger

	// serializes read-modify-write of the blob
	mu sync.Mutex
}

func NewFeedbackRepository(kv Store, logger zerolog.Logger) *FeedbackRepository {
	return &FeedbackRepository{kv: kv, logger: logger}
}

func (r *FeedbackRepository) Load(ctx context.Context, namespace string) ([]domain.FeedbackEntry, error) {
	raw, ok, err := r.kv.Get(ctx, namespace, FeedbacksKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []domain.FeedbackEntry{}, nil
	}

	var entries []domain.FeedbackEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		r.logger.Warn().Err(err).Str("namespace", namespace).Msg("discarding corrupt feedback list")
		return []domain.FeedbackEntry{}, nil
	}
	if entries == nil {
		entries = []domain.FeedbackEntry{}
	}
	return entries, nil
}

func (r *FeedbackRepository) Save(ctx context.Context, namespace string, entries []domain.FeedbackEntry) error {
	if entries == nil {
		entries = []domain.FeedbackEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling feedback list: %w", err)
	}
	return r.kv.Set(ctx, namespace, FeedbacksKey, string(data))
}

// Append adds entry at the end of the list and returns the list as persisted.
func (r *FeedbackRepository) Append(ctx context.Context, namespace string, entry domain.FeedbackEntry) ([]domain.FeedbackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.Load(ctx, namespace)
	if err != nil {
		return nil, err
	}

	entries = append(entries, entry)
	if err := r.Save(ctx, namespace, entries); err != nil {
		return nil, err
	}

	r.logger.Debug().Str("namespace", namespace).Int("count", len(entries)).Msg("feedback appended")
	return entries, nil
}
