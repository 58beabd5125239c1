package server

import (
	"context"
	"errors"
	"happy-game/internal/domain"
	"happy-game/internal/search"
	"happy-game/internal/service"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	GameServiceName = "happygame.v1.GameService"

	ListGamesProcedure      = "/happygame.v1.GameService/ListGames"
	SearchGamesProcedure    = "/happygame.v1.GameService/SearchGames"
	GetGameProcedure        = "/happygame.v1.GameService/GetGame"
	GetRatingProcedure      = "/happygame.v1.GameService/GetRating"
	SaveRatingProcedure     = "/happygame.v1.GameService/SaveRating"
	ListFeedbackProcedure   = "/happygame.v1.GameService/ListFeedback"
	SubmitFeedbackProcedure = "/happygame.v1.GameService/SubmitFeedback"
	SendContactProcedure    = "/happygame.v1.GameService/SendContact"
)

type ListGamesRequest struct{}

type SearchGamesRequest struct {
	Query string `json:"query"`
}

type GamesResponse struct {
	Games []domain.Game `json:"games"`
}

type GetGameRequest struct {
	ID string `json:"id"`
}

type GetGameResponse struct {
	Game *domain.GameDetails `json:"game"`
}

type GetRatingRequest struct {
	GameID string `json:"game_id"`
}

type SaveRatingRequest struct {
	GameID string `json:"game_id"`
	Rating int    `json:"rating"`
}

type RatingResponse struct {
	GameID string `json:"game_id"`
	Rating int    `json:"rating"`
	Rated  bool   `json:"rated"`
}

type ListFeedbackRequest struct{}

type SubmitFeedbackRequest struct {
	Name    string `json:"nome"`
	Message string `json:"mensagem"`
	Rating  int    `json:"rating"`
}

type FeedbackResponse struct {
	Entries []domain.FeedbackEntry `json:"feedbacks"`
}

type SendContactResponse struct {
	Message string `json:"message"`
}

type GameServer struct {
	catalog  *service.CatalogService
	ratings  *service.RatingService
	feedback *service.FeedbackService
	contact  *service.ContactService
	logger   zerolog.Logger
}

func NewGameServer(catalog *service.CatalogService, ratings *service.RatingService, feedback *service.FeedbackService, contact *service.ContactService, logger zerolog.Logger) *GameServer {
	return &GameServer{catalog: catalog, ratings: ratings, feedback: feedback, contact: contact, logger: logger}
}

func (s *GameServer) ListGames(ctx context.Context, req *connect.Request[ListGamesRequest]) (*connect.Response[GamesResponse], error) {
	res := s.catalog.ListGames(ctx)
	if err := resultError(res); err != nil {
		return nil, err
	}
	return connect.NewResponse(&GamesResponse{Games: res.Data}), nil
}

func (s *GameServer) SearchGames(ctx context.Context, req *connect.Request[SearchGamesRequest]) (*connect.Response[GamesResponse], error) {
	if !search.ShouldFetch(req.Msg.Query) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("query must be empty or at least 2 characters"))
	}

	res := s.catalog.SearchGames(ctx, req.Msg.Query)
	if err := resultError(res); err != nil {
		return nil, err
	}
	return connect.NewResponse(&GamesResponse{Games: res.Data}), nil
}

func (s *GameServer) GetGame(ctx context.Context, req *connect.Request[GetGameRequest]) (*connect.Response[GetGameResponse], error) {
	res := s.catalog.GetGameDetails(ctx, strings.TrimSpace(req.Msg.ID))
	if err := resultError(res); err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetGameResponse{Game: res.Data}), nil
}

func (s *GameServer) GetRating(ctx context.Context, req *connect.Request[GetRatingRequest]) (*connect.Response[RatingResponse], error) {
	visitor, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	value, ok, err := s.ratings.Get(ctx, visitor, req.Msg.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RatingResponse{GameID: req.Msg.GameID, Rating: value, Rated: ok}), nil
}

func (s *GameServer) SaveRating(ctx context.Context, req *connect.Request[SaveRatingRequest]) (*connect.Response[RatingResponse], error) {
	visitor, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Msg.GameID) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("game_id is required"))
	}

	if err := s.ratings.Save(ctx, visitor, req.Msg.GameID, req.Msg.Rating); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RatingResponse{GameID: req.Msg.GameID, Rating: req.Msg.Rating, Rated: true}), nil
}

func (s *GameServer) ListFeedback(ctx context.Context, req *connect.Request[ListFeedbackRequest]) (*connect.Response[FeedbackResponse], error) {
	visitor, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.feedback.List(ctx, visitor)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&FeedbackResponse{Entries: entries}), nil
}

func (s *GameServer) SubmitFeedback(ctx context.Context, req *connect.Request[SubmitFeedbackRequest]) (*connect.Response[FeedbackResponse], error) {
	visitor, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.feedback.Submit(ctx, visitor, service.FeedbackInput{
		Name:    req.Msg.Name,
		Message: req.Msg.Message,
		Rating:  req.Msg.Rating,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&FeedbackResponse{Entries: entries}), nil
}

func (s *GameServer) SendContact(ctx context.Context, req *connect.Request[domain.ContactMessage]) (*connect.Response[SendContactResponse], error) {
	if err := s.contact.Send(ctx, *req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SendContactResponse{Message: "Email enviado com sucesso!"}), nil
}

// Handler mounts every GameService procedure, like a generated
// NewGameServiceHandler would.
func (s *GameServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(logErrors(s.logger)),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListGamesProcedure, connect.NewUnaryHandler(ListGamesProcedure, s.ListGames, opts...))
	mux.Handle(SearchGamesProcedure, connect.NewUnaryHandler(SearchGamesProcedure, s.SearchGames, opts...))
	mux.Handle(GetGameProcedure, connect.NewUnaryHandler(GetGameProcedure, s.GetGame, opts...))
	mux.Handle(GetRatingProcedure, connect.NewUnaryHandler(GetRatingProcedure, s.GetRating, opts...))
	mux.Handle(SaveRatingProcedure, connect.NewUnaryHandler(SaveRatingProcedure, s.SaveRating, opts...))
	mux.Handle(ListFeedbackProcedure, connect.NewUnaryHandler(ListFeedbackProcedure, s.ListFeedback, opts...))
	mux.Handle(SubmitFeedbackProcedure, connect.NewUnaryHandler(SubmitFeedbackProcedure, s.SubmitFeedback, opts...))
	mux.Handle(SendContactProcedure, connect.NewUnaryHandler(SendContactProcedure, s.SendContact, opts...))
	return "/" + GameServiceName + "/", mux
}
