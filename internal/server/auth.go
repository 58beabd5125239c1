package server

import (
	"context"
	"happy-game/internal/auth"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	AuthServiceName = "happygame.v1.AuthService"

	SignupProcedure          = "/happygame.v1.AuthService/Signup"
	LoginProcedure           = "/happygame.v1.AuthService/Login"
	LoginWithGoogleProcedure = "/happygame.v1.AuthService/LoginWithGoogle"
	LogoutProcedure          = "/happygame.v1.AuthService/Logout"
	GetSessionProcedure      = "/happygame.v1.AuthService/GetSession"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

type LogoutRequest struct{}

type GetSessionRequest struct{}

type SessionResponse struct {
	User    *domain.User `json:"user"`
	Loading bool         `json:"loading"`
}

type AuthServer struct {
	provider auth.Provider
	sessions *auth.Sessions
	logger   zerolog.Logger
}

func NewAuthServer(provider auth.Provider, sessions *auth.Sessions, logger zerolog.Logger) *AuthServer {
	return &AuthServer{provider: provider, sessions: sessions, logger: logger}
}

// Signup creates the account and signs the visitor in with it.
func (s *AuthServer) Signup(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[SessionResponse], error) {
	sid, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.provider.Signup(ctx, req.Msg.Email, req.Msg.Password); err != nil {
		return nil, toConnectError(err)
	}
	user, err := s.provider.Login(ctx, sid, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{User: user}), nil
}

func (s *AuthServer) Login(ctx context.Context, req *connect.Request[CredentialsRequest]) (*connect.Response[SessionResponse], error) {
	sid, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.provider.Login(ctx, sid, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{User: user}), nil
}

func (s *AuthServer) LoginWithGoogle(ctx context.Context, req *connect.Request[GoogleLoginRequest]) (*connect.Response[SessionResponse], error) {
	sid, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.provider.LoginWithGoogle(ctx, sid, req.Msg.Credential)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{User: user}), nil
}

func (s *AuthServer) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[SessionResponse], error) {
	sid, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.provider.Logout(ctx, sid); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{}), nil
}

// GetSession waits briefly for the session to resolve. A session still
// loading after that is reported as such.
func (s *AuthServer) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	sid, err := visitorFrom(ctx)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, constants.SessionWaitTimeout)
	defer cancel()

	state, _ := s.sessions.Get(sid).Wait(waitCtx)
	return connect.NewResponse(&SessionResponse{User: state.User, Loading: state.Loading}), nil
}

func (s *AuthServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(logErrors(s.logger)),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SignupProcedure, connect.NewUnaryHandler(SignupProcedure, s.Signup, opts...))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, s.Login, opts...))
	mux.Handle(LoginWithGoogleProcedure, connect.NewUnaryHandler(LoginWithGoogleProcedure, s.LoginWithGoogle, opts...))
	mux.Handle(LogoutProcedure, connect.NewUnaryHandler(LogoutProcedure, s.Logout, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...))
	return "/" + AuthServiceName + "/", mux
}
