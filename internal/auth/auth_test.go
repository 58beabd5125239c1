package auth

import (
	"bytes"
	"context"
	"errors"
	"happy-game/internal/config"
	"happy-game/internal/database"
	"happy-game/internal/domain"
	"happy-game/internal/repository"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const googleSecret = "google-test-secret"

func newTestProvider(t *testing.T, credentialSecret string) *LocalProvider {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := NewLocalProvider(
		repository.NewUserRepository(db, zerolog.Nop()),
		repository.NewAuthSessionRepository(db, zerolog.Nop()),
		&config.Config{GoogleCredentialSecret: credentialSecret},
		zerolog.Nop(),
	)
	p.cost = bcrypt.MinCost
	return p
}

func googleCredential(t *testing.T, secret, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, GoogleClaims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t, "")

	user, err := p.Signup(ctx, " Ana@Example.com ", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "password", user.Provider)

	_, err = p.Signup(ctx, "ana@example.com", "outrasenha")
	assert.Equal(t, CodeEmailAlreadyInUse, ErrorCode(err))

	got, err := p.Login(ctx, "sid-1", "ana@example.com", "segredo")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = p.Login(ctx, "sid-1", "ana@example.com", "errada")
	assert.Equal(t, CodeWrongPassword, ErrorCode(err))

	_, err = p.Login(ctx, "sid-1", "bia@example.com", "segredo")
	assert.Equal(t, CodeUserNotFound, ErrorCode(err))
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t, "")

	cases := []struct {
		email, password string
		code            Code
	}{
		{"", "segredo", CodeInvalidEmail},
		{"not-an-email", "segredo", CodeInvalidEmail},
		{"Ana <ana@example.com>", "segredo", CodeInvalidEmail},
		{"ana@example.com", "12345", CodeWeakPassword},
	}
	for _, tc := range cases {
		_, err := p.Signup(ctx, tc.email, tc.password)
		assert.Equal(t, tc.code, ErrorCode(err), "email=%q", tc.email)
	}
}

func TestLoginWithGoogle_LinksPasswordAccount(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var logs bytes.Buffer
	p := NewLocalProvider(
		repository.NewUserRepository(db, zerolog.Nop()),
		repository.NewAuthSessionRepository(db, zerolog.Nop()),
		&config.Config{GoogleCredentialSecret: googleSecret},
		zerolog.New(&logs),
	)
	p.cost = bcrypt.MinCost

	created, err := p.Signup(ctx, "ana@gmail.com", "segredo")
	require.NoError(t, err)

	linked, err := p.LoginWithGoogle(ctx, "sid", googleCredential(t, googleSecret, "ana@gmail.com"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, linked.ID)
	assert.Contains(t, logs.String(), "google sign-in linked to existing account")
	assert.Contains(t, logs.String(), created.ID)

	_, err = p.Login(ctx, "sid-2", "ana@gmail.com", "segredo")
	assert.NoError(t, err, "password login keeps working after the link")
}

func TestLoginWithGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("verified credential", func(t *testing.T) {
		p := newTestProvider(t, googleSecret)
		user, err := p.LoginWithGoogle(ctx, "sid", googleCredential(t, googleSecret, "ana@gmail.com"))
		require.NoError(t, err)
		assert.Equal(t, "google", user.Provider)

		again, err := p.LoginWithGoogle(ctx, "sid-2", googleCredential(t, googleSecret, "ana@gmail.com"))
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)

		_, err = p.Login(ctx, "sid", "ana@gmail.com", "whatever")
		assert.Equal(t, CodeWrongPassword, ErrorCode(err))
	})

	t.Run("popup closed", func(t *testing.T) {
		p := newTestProvider(t, googleSecret)
		_, err := p.LoginWithGoogle(ctx, "sid", "")
		assert.Equal(t, CodePopupClosedByUser, ErrorCode(err))
	})

	t.Run("not configured", func(t *testing.T) {
		p := newTestProvider(t, "")
		_, err := p.LoginWithGoogle(ctx, "sid", googleCredential(t, googleSecret, "ana@gmail.com"))
		assert.Equal(t, CodeOperationNotAllowed, ErrorCode(err))
	})

	t.Run("forged credential", func(t *testing.T) {
		p := newTestProvider(t, googleSecret)
		_, err := p.LoginWithGoogle(ctx, "sid", googleCredential(t, "other-secret", "ana@gmail.com"))
		assert.Equal(t, CodeInvalidCredential, ErrorCode(err))
	})
}

func TestSessionResolvesAndFollowsProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := newTestProvider(t, "")
	_, err := p.Signup(ctx, "ana@example.com", "segredo")
	require.NoError(t, err)

	sessions := NewSessions(p)
	s := sessions.Get("sid-1")
	assert.Same(t, s, sessions.Get("sid-1"))

	state, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, state.Loading)
	assert.Nil(t, state.User)

	changed := s.Changes()
	_, err = p.Login(ctx, "sid-1", "ana@example.com", "segredo")
	require.NoError(t, err)

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("login did not notify the session")
	}
	require.NotNil(t, s.Snapshot().User)
	assert.Equal(t, "ana@example.com", s.Snapshot().User.Email)

	other := sessions.Get("sid-2")
	state, err = other.Wait(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.User, "sign-in is scoped to one visitor")

	changed = s.Changes()
	require.NoError(t, p.Logout(ctx, "sid-1"))
	<-changed
	assert.Nil(t, s.Snapshot().User)
	assert.False(t, s.Snapshot().Loading, "loading never returns to true")

	// a new session for a signed-in visitor resolves to the user
	_, err = p.Login(ctx, "sid-3", "ana@example.com", "segredo")
	require.NoError(t, err)
	state, err = sessions.Get("sid-3").Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.User)
}

type blockingProvider struct {
	Provider
	mu sync.Mutex
	fn func(*domain.User)
}

func (b *blockingProvider) OnAuthStateChanged(sid string, fn func(*domain.User)) func() {
	b.mu.Lock()
	b.fn = fn
	b.mu.Unlock()
	return func() {}
}

func (b *blockingProvider) fire(u *domain.User) {
	b.mu.Lock()
	fn := b.fn
	b.mu.Unlock()
	fn(u)
}

func TestSessionWaitHonoursContext(t *testing.T) {
	bp := &blockingProvider{}
	s := newSession("sid", bp)
	assert.True(t, s.Snapshot().Loading)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, state.Loading)

	done := make(chan State, 1)
	go func() {
		st, _ := s.Wait(context.Background())
		done <- st
	}()
	bp.fire(&domain.User{Email: "ana@example.com"})

	select {
	case st := <-done:
		assert.False(t, st.Loading)
		assert.Equal(t, "ana@example.com", st.User.Email)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the first callback")
	}
}

func TestSessionsPrune(t *testing.T) {
	sessions := NewSessions(&blockingProvider{})
	now := time.Now()
	sessions.now = func() time.Time { return now }

	sessions.Get("old")
	now = now.Add(time.Hour)
	sessions.Get("fresh")

	assert.Equal(t, 1, sessions.Prune(30*time.Minute))
	assert.Equal(t, 1, sessions.Len())

	sessions.Close()
	assert.Zero(t, sessions.Len())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "O formato do e-mail é inválido.", Message(newError(CodeInvalidEmail, nil)))
	assert.Equal(t, "E-mail ou senha incorretos.", Message(newError(CodeUserNotFound, nil)))
	assert.Equal(t, "E-mail ou senha incorretos.", Message(newError(CodeWrongPassword, nil)))
	assert.Equal(t, "Este e-mail já está em uso.", Message(newError(CodeEmailAlreadyInUse, nil)))
	assert.Equal(t, "A senha precisa ter no mínimo 6 caracteres.", Message(newError(CodeWeakPassword, nil)))
	assert.Equal(t, "A janela de login com Google foi fechada.", Message(newError(CodePopupClosedByUser, nil)))
	assert.Equal(t, GenericMessage, Message(newError(CodeOperationNotAllowed, nil)))
	assert.Equal(t, GenericMessage, Message(errors.New("network down")))
	assert.Empty(t, Message(nil))
}

func TestCookieCodec(t *testing.T) {
	codec := NewCookieCodec(&config.Config{SessionSecret: "s3cret"})

	sid, err := NewSID()
	require.NoError(t, err)
	value, err := codec.Encode(sid)
	require.NoError(t, err)

	got, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, sid, got)

	other := NewCookieCodec(&config.Config{SessionSecret: "different"})
	_, err = other.Decode(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	_, err = codec.Decode("garbage")
	assert.ErrorIs(t, err, ErrInvalidCookie)

	codec.now = func() time.Time { return time.Now().Add(-2 * codec.TTL()) }
	expired, err := codec.Encode(sid)
	require.NoError(t, err)
	_, err = NewCookieCodec(&config.Config{SessionSecret: "s3cret"}).Decode(expired)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}
