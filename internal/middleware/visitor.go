package middleware

import (
	"context"
	"happy-game/internal/auth"
	"happy-game/internal/constants"
	"net/http"

	"github.com/rs/zerolog"
)

const VisitorIDKey contextKey = "visitor_id"

// Visitor resolves the signed hg_session cookie into a visitor id, issuing a
// new one when the cookie is missing or does not verify. The id namespaces
// the visitor's ratings and feedback and keys their auth session.
func Visitor(codec *auth.CookieCodec, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(constants.SessionCookieName); err == nil {
				sid, _ = codec.Decode(c.Value)
			}

			if sid == "" {
				var err error
				sid, err = issue(w, r, codec)
				if err != nil {
					logger.Error().Err(err).Msg("failed to issue visitor session")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			ctx := context.WithValue(r.Context(), VisitorIDKey, sid)
			l := zerolog.Ctx(ctx).With().Str("visitor_id", sid).Logger()
			ctx = l.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func issue(w http.ResponseWriter, r *http.Request, codec *auth.CookieCodec) (string, error) {
	sid, err := auth.NewSID()
	if err != nil {
		return "", err
	}
	value, err := codec.Encode(sid)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

func GetVisitorID(ctx context.Context) string {
	if id, ok := ctx.Value(VisitorIDKey).(string); ok {
		return id
	}
	return ""
}
