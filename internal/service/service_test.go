package service

import (
	"context"
	"database/sql"
	"errors"
	"happy-game/internal/api"
	"happy-game/internal/cache"
	"happy-game/internal/config"
	"happy-game/internal/database"
	"happy-game/internal/domain"
	"happy-game/internal/repository"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type stubCatalog struct {
	calls    atomic.Int32
	games    api.Result[[]domain.Game]
	details  api.Result[*domain.GameDetails]
	releases api.Result[[]domain.NewRelease]
	queries  []string
}

func (s *stubCatalog) ListGames(ctx context.Context) api.Result[[]domain.Game] {
	s.calls.Add(1)
	s.queries = append(s.queries, "")
	return s.games
}

func (s *stubCatalog) SearchGames(ctx context.Context, query string) api.Result[[]domain.Game] {
	s.calls.Add(1)
	s.queries = append(s.queries, query)
	return s.games
}

func (s *stubCatalog) GetGameDetails(ctx context.Context, id string) api.Result[*domain.GameDetails] {
	s.calls.Add(1)
	return s.details
}

func (s *stubCatalog) ListNewReleases(ctx context.Context) api.Result[[]domain.NewRelease] {
	s.calls.Add(1)
	return s.releases
}

func newCatalogService(stub *stubCatalog) *CatalogService {
	return NewCatalogService(stub, cache.NewMemoryCache(), &config.Config{CacheTTL: time.Hour}, zerolog.Nop())
}

func TestCatalogService_CachesSuccess(t *testing.T) {
	stub := &stubCatalog{games: api.OK([]domain.Game{{ID: 1, Name: "Portal 2"}})}
	svc := newCatalogService(stub)
	ctx := context.Background()

	first := svc.ListGames(ctx)
	second := svc.ListGames(ctx)

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, first.Data, second.Data)
	assert.EqualValues(t, 1, stub.calls.Load())
}

func TestCatalogService_DoesNotCacheFailures(t *testing.T) {
	stub := &stubCatalog{details: api.Unavailable[*domain.GameDetails](errors.New("boom"))}
	svc := newCatalogService(stub)
	ctx := context.Background()

	assert.Equal(t, api.StatusUnavailable, svc.GetGameDetails(ctx, "1").Status)

	stub.details = api.NotFound[*domain.GameDetails]()
	assert.Equal(t, api.StatusNotFound, svc.GetGameDetails(ctx, "1").Status)

	stub.details = api.OK(&domain.GameDetails{Game: domain.Game{ID: 1, Name: "Hades"}})
	res := svc.GetGameDetails(ctx, "1")
	require.True(t, res.OK())
	assert.Equal(t, "Hades", res.Data.Name)

	svc.GetGameDetails(ctx, "1")
	assert.EqualValues(t, 3, stub.calls.Load())
}

func TestCatalogService_BlankSearchListsAll(t *testing.T) {
	stub := &stubCatalog{games: api.OK([]domain.Game{})}
	svc := newCatalogService(stub)

	svc.SearchGames(context.Background(), "   ")
	svc.SearchGames(context.Background(), " Zelda ")

	assert.Equal(t, []string{"", "Zelda"}, stub.queries)
}

func TestRatingService(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRatingRepository(repository.NewKVStore(newTestDB(t), zerolog.Nop()), zerolog.Nop())
	svc := NewRatingService(repo, zerolog.Nop())

	_, ok, err := svc.Get(ctx, "v1", "3498")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Save(ctx, "v1", "3498", 4))
	assert.ErrorIs(t, svc.Save(ctx, "v1", "3498", 6), ErrRatingOutOfRange)
	assert.ErrorIs(t, svc.Save(ctx, "v1", "3498", 0), ErrRatingOutOfRange)

	v, ok, err := svc.Get(ctx, "v1", "3498")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	store := svc.ForVisitor(ctx, "v1")
	v, ok = store.Load("3498")
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	require.NoError(t, store.Save("3498", 2))
	v, _, _ = svc.Get(ctx, "v1", "3498")
	assert.Equal(t, 2, v)
}

func newFeedbackService(t *testing.T, at time.Time) *FeedbackService {
	t.Helper()
	repo := repository.NewFeedbackRepository(repository.NewKVStore(newTestDB(t), zerolog.Nop()), zerolog.Nop())
	loc := time.FixedZone("BRT", -3*60*60)
	svc := NewFeedbackService(repo, &config.Config{Location: loc}, zerolog.Nop())
	svc.now = func() time.Time { return at }
	return svc
}

func TestFeedbackService_Submit(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, time.Date(2024, time.March, 5, 17, 4, 9, 0, time.UTC))

	entries, err := svc.Submit(ctx, "v1", FeedbackInput{Name: "  Ana ", Message: "Ótimo", Rating: 5})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "Ótimo", got.Message)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "05/03/2024, 14:04:09", got.SubmittedAt)
	assert.NotEmpty(t, got.ID)

	entries, err = svc.Submit(ctx, "v1", FeedbackInput{Name: "Bia", Rating: 3})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Ana", entries[0].Name, "newest entry goes last")
	assert.Equal(t, "Bia", entries[1].Name)

	listed, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, entries, listed)
}

func TestFeedbackService_Rejects(t *testing.T) {
	ctx := context.Background()
	svc := newFeedbackService(t, time.Now())

	cases := []struct {
		name string
		in   FeedbackInput
		err  error
	}{
		{"blank name", FeedbackInput{Name: "   ", Rating: 4}, ErrFeedbackInvalid},
		{"no rating", FeedbackInput{Name: "Ana", Message: "x"}, ErrFeedbackInvalid},
		{"rating too high", FeedbackInput{Name: "Ana", Rating: 7}, ErrRatingOutOfRange},
		{"negative rating", FeedbackInput{Name: "Ana", Rating: -1}, ErrRatingOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, "v1", tc.in)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	listed, err := svc.List(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestContactService_Send(t *testing.T) {
	svc := NewContactService(zerolog.Nop())
	ctx := context.Background()

	assert.NoError(t, svc.Send(ctx, domain.ContactMessage{Name: "Ana", Email: "ana@example.com", Message: "Oi"}))
	assert.ErrorIs(t, svc.Send(ctx, domain.ContactMessage{Name: "", Email: "ana@example.com", Message: "Oi"}), ErrContactInvalid)
	assert.ErrorIs(t, svc.Send(ctx, domain.ContactMessage{Name: "Ana", Email: "not-an-email", Message: "Oi"}), ErrContactInvalid)
	assert.ErrorIs(t, svc.Send(ctx, domain.ContactMessage{Name: "Ana", Email: "ana@example.com", Message: "  "}), ErrContactInvalid)
}
