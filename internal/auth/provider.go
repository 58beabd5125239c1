// Package auth owns sign-up, sign-in and the per-visitor auth session.
package auth

import (
	"context"
	"errors"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"happy-game/internal/repository"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Provider is the identity backend. OnAuthStateChanged delivers the current
// identity of sid once, asynchronously, and again after every change.
type Provider interface {
	Signup(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, sid, email, password string) (*domain.User, error)
	LoginWithGoogle(ctx context.Context, sid, credential string) (*domain.User, error)
	Logout(ctx context.Context, sid string) error
	OnAuthStateChanged(sid string, fn func(*domain.User)) (unsubscribe func())
}

// GoogleClaims is the payload of the credential returned by the Google popup.
type GoogleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type listener struct {
	id int
	fn func(*domain.User)
}

// LocalProvider keeps users and sign-ins in SQLite.
type LocalProvider struct {
	users            *repository.UserRepository
	sessions         *repository.AuthSessionRepository
	credentialSecret []byte
	cost             int
	logger           zerolog.Logger

	mu        sync.Mutex
	listeners map[string][]listener
	nextID    int

	// orders a binding change with the callbacks it triggers
	stateMu sync.Mutex
}

func NewLocalProvider(users *repository.UserRepository, sessions *repository.AuthSessionRepository, cfg *config.Config, logger zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		users:            users,
		sessions:         sessions,
		credentialSecret: []byte(cfg.GoogleCredentialSecret),
		cost:             bcrypt.DefaultCost,
		logger:           logger.With().Str("component", "auth").Logger(),
		listeners:        make(map[string][]listener),
	}
}

// Signup creates a password account. It does not sign the visitor in.
func (p *LocalProvider) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return nil, newError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}

	user, err := p.users.Create(ctx, email, string(hash))
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, newError(CodeEmailAlreadyInUse, nil)
	}
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

func (p *LocalProvider) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, hash, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(CodeUserNotFound, nil)
	}
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, newError(CodeWrongPassword, errors.New("account has no password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, newError(CodeWrongPassword, nil)
	}

	if err := p.signIn(ctx, sid, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithGoogle accepts the credential produced by the popup. An empty
// credential means the popup was dismissed.
func (p *LocalProvider) LoginWithGoogle(ctx context.Context, sid, credential string) (*domain.User, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, newError(CodePopupClosedByUser, nil)
	}
	if len(p.credentialSecret) == 0 {
		return nil, newError(CodeOperationNotAllowed, errors.New("google login is not configured"))
	}

	claims := &GoogleClaims{}
	tok, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.credentialSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil, newError(CodeInvalidCredential, err)
	}

	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return nil, newError(CodeInvalidCredential, err)
	}

	user, err := p.users.UpsertFederated(ctx, email, "google")
	if err != nil {
		return nil, err
	}
	if user.Provider != "google" {
		// verified email: the federated login joins the existing account
		p.logger.Info().
			Str("user_id", user.ID).
			Str("account_provider", user.Provider).
			Msg("google sign-in linked to existing account")
	}
	if err := p.signIn(ctx, sid, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *LocalProvider) Logout(ctx context.Context, sid string) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if err := p.sessions.Unbind(ctx, sid); err != nil {
		return err
	}
	p.logger.Info().Str("sid", sid).Msg("user signed out")
	p.notify(sid, nil)
	return nil
}

func (p *LocalProvider) OnAuthStateChanged(sid string, fn func(*domain.User)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[sid] = append(p.listeners[sid], listener{id: id, fn: fn})
	p.mu.Unlock()

	go func() {
		p.stateMu.Lock()
		defer p.stateMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()

		user, err := p.sessions.UserFor(ctx, sid)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn().Err(err).Str("sid", sid).Msg("failed to resolve session, treating as signed out")
		}
		if p.subscribed(sid, id) {
			fn(user)
		}
	}()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		ls := p.listeners[sid]
		for i, l := range ls {
			if l.id == id {
				p.listeners[sid] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(p.listeners[sid]) == 0 {
			delete(p.listeners, sid)
		}
	}
}

func (p *LocalProvider) signIn(ctx context.Context, sid string, user *domain.User) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if err := p.sessions.Bind(ctx, sid, user.ID); err != nil {
		return err
	}
	p.logger.Info().Str("sid", sid).Str("user_id", user.ID).Str("provider", user.Provider).Msg("user signed in")
	p.notify(sid, user)
	return nil
}

// notify must run with stateMu held.
func (p *LocalProvider) notify(sid string, user *domain.User) {
	p.mu.Lock()
	ls := append([]listener(nil), p.listeners[sid]...)
	p.mu.Unlock()

	for _, l := range ls {
		l.fn(user)
	}
}

func (p *LocalProvider) subscribed(sid string, id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.listeners[sid] {
		if l.id == id {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", newError(CodeInvalidEmail, err)
	}
	return email, nil
}
