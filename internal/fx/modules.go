package fx

import (
	"happy-game/internal/api"
	"happy-game/internal/auth"
	"happy-game/internal/cache"
	"happy-game/internal/config"
	"happy-game/internal/database"
	"happy-game/internal/logger"
	"happy-game/internal/repository"
	"happy-game/internal/server"
	"happy-game/internal/service"
	"happy-game/internal/web"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(cache.New),
	// repos
	fx.Provide(
		fx.Annotate(repository.NewKVStore, fx.As(new(repository.Store))),
	),
	fx.Provide(repository.NewRatingRepository),
	fx.Provide(repository.NewFeedbackRepository),
	fx.Provide(repository.NewUserRepository),
	fx.Provide(repository.NewAuthSessionRepository),
	// api client
	fx.Provide(
		fx.Annotate(api.NewCatalogClient, fx.As(new(service.Catalog))),
	),
	// auth
	fx.Provide(
		fx.Annotate(auth.NewLocalProvider, fx.As(new(auth.Provider))),
	),
	fx.Provide(auth.NewSessions),
	fx.Provide(auth.NewCookieCodec),
	fx.Invoke(auth.ManageSessions),
	// svc
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewRatingService),
	fx.Provide(service.NewFeedbackService),
	fx.Provide(service.NewContactService),
	// server
	fx.Provide(server.NewGameServer),
	fx.Provide(server.NewAuthServer),
	fx.Provide(web.NewHandler),
)
