package service

import (
	"context"
	"fmt"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"happy-game/internal/rating"
	"happy-game/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type FeedbackInput struct {
	Name    string
	Message string
	Rating  int
}

type FeedbackService struct {
	repo   *repository.FeedbackRepository
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

func NewFeedbackService(repo *repository.FeedbackRepository, cfg *config.Config, logger zerolog.Logger) *FeedbackService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &FeedbackService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// List returns the visitor's feedback in submission order.
func (s *FeedbackService) List(ctx context.Context, visitor string) ([]domain.FeedbackEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.repo.Load(ctx, visitor)
}

// Submit validates and appends one entry, returning the updated list.
// A rejected submission leaves the stored list untouched.
func (s *FeedbackService) Submit(ctx context.Context, visitor string, in FeedbackInput) ([]domain.FeedbackEntry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Rating == 0 {
		return nil, ErrFeedbackInvalid
	}
	if !rating.Valid(in.Rating) {
		return nil, ErrRatingOutOfRange
	}

	entry := domain.FeedbackEntry{
		ID:          uuid.NewString(),
		Name:        name,
		Message:     strings.TrimSpace(in.Message),
		Rating:      in.Rating,
		SubmittedAt: s.now().In(s.loc).Format(constants.FeedbackTimeLayout),
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	entries, err := s.repo.Append(ctx, visitor, entry)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to append feedback")
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	s.logger.Info().Str("feedback_id", entry.ID).Int("rating", entry.Rating).Msg("feedback submitted")
	return entries, nil
}
