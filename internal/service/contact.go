package service

import (
	"context"
	"happy-game/internal/domain"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

// ContactService accepts contact form messages. They are logged, not stored.
type ContactService struct {
	logger zerolog.Logger
}

func NewContactService(logger zerolog.Logger) *ContactService {
	return &ContactService{logger: logger.With().Str("component", "contact").Logger()}
}

func (s *ContactService) Send(ctx context.Context, msg domain.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)

	if msg.Name == "" || msg.Message == "" {
		return ErrContactInvalid
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return ErrContactInvalid
	}

	s.logger.Info().
		Str("nome", msg.Name).
		Str("email", msg.Email).
		Str("mensagem", msg.Message).
		Msg("contact message received")
	return nil
}
