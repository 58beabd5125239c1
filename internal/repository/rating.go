package repository

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
)

// RatingRepository keeps one star rating per item and visitor under rating-<itemId>.
type RatingRepository struct {
	kv     Store
	logger zerolog.Logger
}

func NewRatingRepository(kv Store, logger zerolog.Logger) *RatingRepository {
	return &RatingRepository{kv: kv, logger: logger}
}

func (r *RatingRepository) Get(ctx context.Context, namespace, itemID string) (int, bool, error) {
	raw, ok, err := r.kv.Get(ctx, namespace, RatingKey(itemID))
	if err != nil || !ok {
		return 0, false, err
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Warn().Str("item_id", itemID).Str("raw", raw).Msg("ignoring unparsable rating")
		return 0, false, nil
	}
	return value, true, nil
}

// Set overwrites any earlier rating for the item. Range checks belong to the caller.
func (r *RatingRepository) Set(ctx context.Context, namespace, itemID string, rating int) error {
	return r.kv.Set(ctx, namespace, RatingKey(itemID), strconv.Itoa(rating))
}
