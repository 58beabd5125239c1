package service

import (
	"context"
	"happy-game/internal/constants"
	"happy-game/internal/rating"
	"happy-game/internal/repository"

	"github.com/rs/zerolog"
)

type RatingService struct {
	repo   *repository.RatingRepository
	logger zerolog.Logger
}

func NewRatingService(repo *repository.RatingRepository, logger zerolog.Logger) *RatingService {
	return &RatingService{repo: repo, logger: logger}
}

// Get returns the visitor's rating for itemID, or false when none was saved.
func (s *RatingService) Get(ctx context.Context, visitor, itemID string) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	v, ok, err := s.repo.Get(ctx, visitor, itemID)
	if err != nil || !ok || !rating.Valid(v) {
		return 0, false, err
	}
	return v, true, nil
}

// Save overwrites the visitor's rating. Nothing is written for a value outside 1..5.
func (s *RatingService) Save(ctx context.Context, visitor, itemID string, value int) error {
	if !rating.Valid(value) {
		return ErrRatingOutOfRange
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Set(ctx, visitor, itemID, value); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID).Msg("failed to save rating")
		return err
	}
	s.logger.Info().Str("item_id", itemID).Int("rating", value).Msg("rating saved")
	return nil
}

// ForVisitor adapts the service to the widget's store for one request.
func (s *RatingService) ForVisitor(ctx context.Context, visitor string) rating.Store {
	return visitorRatings{ctx: ctx, svc: s, visitor: visitor}
}

type visitorRatings struct {
	ctx     context.Context
	svc     *RatingService
	visitor string
}

func (v visitorRatings) Load(itemID string) (int, bool) {
	value, ok, err := v.svc.Get(v.ctx, v.visitor, itemID)
	if err != nil {
		v.svc.logger.Warn().Err(err).Str("item_id", itemID).Msg("failed to load rating")
		return 0, false
	}
	return value, ok
}

func (v visitorRatings) Save(itemID string, value int) error {
	return v.svc.Save(v.ctx, v.visitor, itemID, value)
}
