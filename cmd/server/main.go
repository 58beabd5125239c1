package main

import (
	"context"
	"fmt"
	"happy-game/internal/auth"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	fxmodules "happy-game/internal/fx"
	"happy-game/internal/middleware"
	"happy-game/internal/server"
	"happy-game/internal/web"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	gameServer *server.GameServer,
	authServer *server.AuthServer,
	pages *web.Handler,
	codec *auth.CookieCodec,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	cfg.Log(logger)

	mux := http.NewServeMux()
	pages.Register(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	gamePath, gameHandler := gameServer.Handler()
	authPath, authHandler := authServer.Handler()
	mux.Handle(gamePath, c.Handler(gameHandler))
	mux.Handle(authPath, c.Handler(authHandler))

	handler := middleware.RequestID(logger)(middleware.Visitor(codec, logger)(mux))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
