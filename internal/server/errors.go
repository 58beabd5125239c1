package server

import (
	"context"
	"errors"
	"happy-game/internal/api"
	"happy-game/internal/auth"
	"happy-game/internal/middleware"
	"happy-game/internal/rating"
	"happy-game/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

var errNoVisitor = errors.New("missing visitor session")

func visitorFrom(ctx context.Context) (string, error) {
	if id := middleware.GetVisitorID(ctx); id != "" {
		return id, nil
	}
	return "", connect.NewError(connect.CodeFailedPrecondition, errNoVisitor)
}

func resultError[T any](res api.Result[T]) error {
	switch res.Status {
	case api.StatusOK:
		return nil
	case api.StatusNotFound:
		return connect.NewError(connect.CodeNotFound, errors.New("game not found"))
	default:
		err := res.Err
		if err == nil {
			err = errors.New("catalog unavailable")
		}
		return connect.NewError(connect.CodeUnavailable, err)
	}
}

func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, service.ErrRatingOutOfRange),
		errors.Is(err, rating.ErrOutOfRange),
		errors.Is(err, service.ErrFeedbackInvalid),
		errors.Is(err, service.ErrContactInvalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}

	if code := auth.ErrorCode(err); code != "" {
		return connect.NewError(authCode(code), errors.New(string(code)))
	}
	return connect.NewError(connect.CodeInternal, err)
}

func authCode(code auth.Code) connect.Code {
	switch code {
	case auth.CodeInvalidEmail, auth.CodeWeakPassword:
		return connect.CodeInvalidArgument
	case auth.CodeEmailAlreadyInUse:
		return connect.CodeAlreadyExists
	case auth.CodePopupClosedByUser:
		return connect.CodeCanceled
	case auth.CodeOperationNotAllowed:
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeUnauthenticated
	}
}

// logErrors records failed calls. Client errors log at debug.
func logErrors(logger zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err != nil {
				code := connect.CodeOf(err)
				event := logger.Debug()
				if code == connect.CodeInternal || code == connect.CodeUnavailable {
					event = logger.Warn()
				}
				event.Err(err).
					Str("procedure", req.Spec().Procedure).
					Str("code", code.String()).
					Str("request_id", middleware.GetRequestID(ctx)).
					Msg("rpc failed")
			}
			return resp, err
		}
	}
}
