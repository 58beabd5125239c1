package api

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type fakeCatalog struct {
	hits    atomic.Int32
	handler fasthttp.RequestHandler
}

func newTestClient(t *testing.T, apiKey string, handler fasthttp.RequestHandler) (*CatalogClient, *fakeCatalog) {
	t.Helper()

	fake := &fakeCatalog{handler: handler}
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		fake.hits.Add(1)
		fake.handler(ctx)
	}}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	return New(apiKey, "http://catalog.test/api/", "http://site.test", client, zerolog.Nop()), fake
}

func TestListGames(t *testing.T) {
	client, fake := newTestClient(t, "secret", func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/api/games", string(ctx.Path()))
		assert.Equal(t, "secret", string(ctx.QueryArgs().Peek("key")))
		assert.False(t, ctx.QueryArgs().Has("search"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"count":2,"results":[
			{"id":3498,"name":"Grand Theft Auto V","background_image":"https://img/gta.jpg","rating":4.47},
			{"id":3328,"name":"The Witcher 3","background_image":"https://img/w3.jpg","rating":4.65,"metacritic":92}
		]}`)
	})

	res := client.ListGames(context.Background())

	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Data, 2)
	assert.Equal(t, 3498, res.Data[0].ID)
	assert.Equal(t, "Grand Theft Auto V", res.Data[0].Name)
	assert.InDelta(t, 4.65, res.Data[1].Rating, 0.001)
	require.NotNil(t, res.Data[1].Metacritic)
	assert.Equal(t, 92, *res.Data[1].Metacritic)
	assert.EqualValues(t, 1, fake.hits.Load())
}

func TestSearchGames_PassesQuery(t *testing.T) {
	client, _ := newTestClient(t, "secret", func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "zelda breath", string(ctx.QueryArgs().Peek("search")))
		ctx.SetBodyString(`{"results":[{"id":22511,"name":"The Legend of Zelda: Breath of the Wild"}]}`)
	})

	res := client.SearchGames(context.Background(), "zelda breath")
	require.True(t, res.OK())
	require.Len(t, res.Data, 1)
	assert.Equal(t, 22511, res.Data[0].ID)
}

func TestListGames_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler fasthttp.RequestHandler
	}{
		{"server error", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		}},
		{"unauthorized", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.SetBodyString(`{"error":"The key parameter is not provided"}`)
		}},
		{"malformed json", func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString(`{"results":[`)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, "secret", tc.handler)

			res := client.ListGames(context.Background())

			assert.Equal(t, StatusUnavailable, res.Status)
			assert.Error(t, res.Err)
			assert.Empty(t, res.OrEmpty())
		})
	}
}

func TestMissingAPIKey_ShortCircuits(t *testing.T) {
	client, fake := newTestClient(t, "", func(ctx *fasthttp.RequestCtx) {
		t.Error("no request expected without an API key")
	})

	list := client.ListGames(context.Background())
	search := client.SearchGames(context.Background(), "doom")
	details := client.GetGameDetails(context.Background(), "1")

	assert.Equal(t, StatusUnavailable, list.Status)
	assert.ErrorIs(t, list.Err, ErrMissingAPIKey)
	assert.Equal(t, StatusUnavailable, search.Status)
	assert.Equal(t, StatusUnavailable, details.Status)
	assert.Nil(t, details.OrEmpty())
	assert.EqualValues(t, 0, fake.hits.Load())
}

func TestGetGameDetails(t *testing.T) {
	client, _ := newTestClient(t, "secret", func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/api/games/3498":
			ctx.SetBodyString(`{
				"id":3498,"name":"Grand Theft Auto V","description":"<p>Rockstar</p>",
				"background_image":"https://img/gta.jpg","rating":4.47,"metacritic":92,
				"genres":[{"id":4,"name":"Action","slug":"action"}],
				"platforms":[
					{"platform":{"id":4,"name":"PC","slug":"pc"},"requirements":{"minimum":"4GB RAM","recommended":"8GB RAM"}},
					{"platform":{"id":187,"name":"PlayStation 5","slug":"playstation5"},"requirements":[]}
				],
				"ratings":[{"id":5,"title":"exceptional","count":3000,"percent":59.1}]
			}`)
		case "/api/games/999999999":
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetBodyString(`{"detail":"Not found."}`)
		default:
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
		}
	})

	t.Run("found", func(t *testing.T) {
		res := client.GetGameDetails(context.Background(), "3498")
		require.Equal(t, StatusOK, res.Status)
		game := res.Data
		assert.Equal(t, "Grand Theft Auto V", game.Name)
		assert.Equal(t, "<p>Rockstar</p>", game.Description)
		require.Len(t, game.Genres, 1)
		require.Len(t, game.Platforms, 2)
		assert.Equal(t, "4GB RAM", game.Platforms[0].Requirements.Minimum)
		assert.Empty(t, game.Platforms[1].Requirements.Minimum)
		require.Len(t, game.Ratings, 1)
		assert.Equal(t, "exceptional", game.Ratings[0].Title)
	})

	t.Run("not found", func(t *testing.T) {
		res := client.GetGameDetails(context.Background(), "999999999")
		assert.Equal(t, StatusNotFound, res.Status)
		assert.NoError(t, res.Err)
		assert.Nil(t, res.Data)
	})

	t.Run("upstream failure is distinguishable from not found", func(t *testing.T) {
		res := client.GetGameDetails(context.Background(), "1")
		assert.Equal(t, StatusUnavailable, res.Status)
		var statusErr *StatusError
		require.ErrorAs(t, res.Err, &statusErr)
		assert.Equal(t, fasthttp.StatusBadGateway, statusErr.Code)
	})
}

func TestListNewReleases(t *testing.T) {
	client, _ := newTestClient(t, "", func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/videos.json", string(ctx.Path()))
		ctx.SetBodyString(`[{"id":1,"name":"Trailer","path":"/videos/1.mp4"}]`)
	})

	res := client.ListNewReleases(context.Background())
	require.True(t, res.OK())
	require.Len(t, res.Data, 1)
	assert.Equal(t, "/videos/1.mp4", res.Data[0].Path)
}

func TestCanceledContext(t *testing.T) {
	client, fake := newTestClient(t, "secret", func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"results":[]}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	res := client.ListGames(ctx)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.EqualValues(t, 0, fake.hits.Load())
}
