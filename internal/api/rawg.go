package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var ErrMissingAPIKey = errors.New("catalog API key is not configured")

// StatusError is a non-2xx answer from the catalog.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.Code)
}

// CatalogClient talks to the RAWG game catalog.
type CatalogClient struct {
	apiKey      string
	baseURL     string
	siteBaseURL string
	client      *fasthttp.Client
	logger      zerolog.Logger
}

func NewCatalogClient(cfg *config.Config, logger zerolog.Logger) *CatalogClient {
	return New(cfg.RAWGAPIKey, cfg.RAWGBaseURL, cfg.SiteBaseURL, &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         constants.ExternalAPITimeout,
		WriteTimeout:        constants.ExternalAPITimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}, logger)
}

func New(apiKey, baseURL, siteBaseURL string, client *fasthttp.Client, logger zerolog.Logger) *CatalogClient {
	return &CatalogClient{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		siteBaseURL: strings.TrimRight(siteBaseURL, "/"),
		client:      client,
		logger:      logger.With().Str("component", "catalog").Logger(),
	}
}

func (c *CatalogClient) ListGames(ctx context.Context) Result[[]domain.Game] {
	return c.games(ctx, "")
}

// SearchGames filters by name. An empty query is the unfiltered list.
func (c *CatalogClient) SearchGames(ctx context.Context, query string) Result[[]domain.Game] {
	return c.games(ctx, query)
}

func (c *CatalogClient) games(ctx context.Context, query string) Result[[]domain.Game] {
	if c.apiKey == "" {
		return Unavailable[[]domain.Game](ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	if query != "" {
		params.Set("search", query)
	}

	resp, err := doRequest[gamesResponse](ctx, c, c.baseURL+"/games?"+params.Encode())
	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("failed to fetch games")
		return Unavailable[[]domain.Game](err)
	}

	games := make([]domain.Game, 0, len(resp.Results))
	for _, g := range resp.Results {
		games = append(games, g.toDomain())
	}
	return OK(games)
}

// GetGameDetails maps a 404 to StatusNotFound; every other failure is StatusUnavailable.
func (c *CatalogClient) GetGameDetails(ctx context.Context, id string) Result[*domain.GameDetails] {
	if c.apiKey == "" {
		return Unavailable[*domain.GameDetails](ErrMissingAPIKey)
	}
	if strings.TrimSpace(id) == "" {
		return NotFound[*domain.GameDetails]()
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/games/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())

	resp, err := doRequest[gameDetailsResponse](ctx, c, endpoint)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == fasthttp.StatusNotFound {
			c.logger.Debug().Str("game_id", id).Msg("game not found")
			return NotFound[*domain.GameDetails]()
		}
		c.logger.Warn().Err(err).Str("game_id", id).Msg("failed to fetch game details")
		return Unavailable[*domain.GameDetails](err)
	}

	details := resp.toDomain()
	return OK(&details)
}

// ListNewReleases reads the trailer list published next to the site at /videos.json.
func (c *CatalogClient) ListNewReleases(ctx context.Context) Result[[]domain.NewRelease] {
	if c.siteBaseURL == "" {
		return Unavailable[[]domain.NewRelease](errors.New("site base URL is not configured"))
	}

	resp, err := doRequest[[]domain.NewRelease](ctx, c, c.siteBaseURL+"/videos.json")
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch new releases")
		return Unavailable[[]domain.NewRelease](err)
	}
	if *resp == nil {
		return OK([]domain.NewRelease{})
	}
	return OK(*resp)
}

func doRequest[T any](ctx context.Context, client *CatalogClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, err
		}
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &StatusError{Code: code}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}
	return &result, nil
}

type gamesResponse struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []gameResult `json:"results"`
}

type gameResult struct {
	ID              int            `json:"id"`
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	BackgroundImage string         `json:"background_image"`
	Rating          float64        `json:"rating"`
	Released        string         `json:"released"`
	Metacritic      *int           `json:"metacritic"`
	Genres          []domain.Genre `json:"genres"`
}

func (g gameResult) toDomain() domain.Game {
	return domain.Game{
		ID:              g.ID,
		Slug:            g.Slug,
		Name:            g.Name,
		BackgroundImage: g.BackgroundImage,
		Rating:          g.Rating,
		Released:        g.Released,
		Metacritic:      g.Metacritic,
		Genres:          g.Genres,
	}
}

type gameDetailsResponse struct {
	gameResult
	Description string                   `json:"description"`
	Platforms   []platformDetailResponse `json:"platforms"`
	Ratings     []domain.RatingBreakdown `json:"ratings"`
}

// The catalog sends requirements as an object, an empty array, or null.
type platformDetailResponse struct {
	Platform     domain.Platform `json:"platform"`
	Requirements json.RawMessage `json:"requirements"`
}

func (r gameDetailsResponse) toDomain() domain.GameDetails {
	details := domain.GameDetails{
		Game:        r.gameResult.toDomain(),
		Description: r.Description,
		Platforms:   make([]domain.PlatformDetail, 0, len(r.Platforms)),
		Ratings:     r.Ratings,
	}
	if details.Ratings == nil {
		details.Ratings = []domain.RatingBreakdown{}
	}
	for _, p := range r.Platforms {
		var req domain.PlatformRequirements
		if len(p.Requirements) > 0 && p.Requirements[0] == '{' {
			_ = json.Unmarshal(p.Requirements, &req)
		}
		details.Platforms = append(details.Platforms, domain.PlatformDetail{
			Platform:     p.Platform,
			Requirements: req,
		})
	}
	return details
}
